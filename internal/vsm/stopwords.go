package vsm

var stopWordList = []string{
	// English
	"the", "is", "at", "which", "on", "and", "a", "an", "to", "in", "of", "for",
	"this", "that", "with", "from", "as", "by", "we", "you", "your", "are", "be",
	"or", "it", "can", "have", "has", "not", "if", "but", "me", "my", "so", "do",
	"will", "just", "go", "up", "down", "dear", "hi", "hello", "best", "regards",
	"thanks", "thank", "am", "pm", "subject", "re", "fwd", "cc", "bcc", "sent", "via",

	// Vietnamese
	"là", "của", "và", "các", "những", "cho", "với", "trong", "tại", "để", "do",
	"bởi", "vì", "này", "đó", "khi", "nhưng", "hoặc", "thì", "mà", "được", "tôi",
	"bạn", "chúng", "nó", "về", "gửi", "kính", "thân", "như", "có", "làm", "người",
	"ra", "vào", "lại", "qua", "hãy", "đã", "đang", "sẽ", "ngày", "tháng", "năm",

	// HTML and CSS residue
	"div", "span", "class", "style", "href", "http", "https", "com", "vn", "www",
	"font", "color", "size", "face", "align", "target", "blank", "html", "body",
	"table", "tr", "td", "br", "img", "src", "strong", "em", "b", "i", "u",
	"width", "height", "padding", "margin", "border", "background", "text",
	"center", "left", "right", "top", "bottom", "display", "block", "inline",
	"none", "sans-serif", "arial", "helvetica", "solid", "px", "important",
	"mailto", "tel", "fax", "mobile",
}

var stopWords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(stopWordList))
	for _, w := range stopWordList {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopWord reports whether token is dropped by the tokenizer.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
