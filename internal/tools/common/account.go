package common

// GetAccountFromArgs extracts the Gmail account name from request arguments.
// An empty result means the server's configured default account.
func GetAccountFromArgs(args map[string]interface{}) string {
	if accountVal, ok := args["account"].(string); ok {
		return accountVal
	}
	return ""
}

// GetStringArg returns a string argument or def when it is missing or empty.
func GetStringArg(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// GetIntArg returns a numeric argument as int. JSON numbers arrive as
// float64; def is returned for anything else.
func GetIntArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return def
}

// GetBoolArg returns a boolean argument or def.
func GetBoolArg(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}
