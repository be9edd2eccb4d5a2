// Package vsm implements a vector space model email classifier.
//
// Emails are turned into TF-IDF vectors over a fixed vocabulary and compared
// by cosine similarity against one centroid per category. The vocabulary and
// IDF weights come from offline training (Train) and never change at runtime;
// centroids can be adapted online from labelled feedback (Service.Learn).
//
// # Pipeline
//
//	Tokenize -> BuildVocabulary -> Vectorizer.Vectorize -> Centroid -> Model
//
// # Serving
//
// A Service owns the resident model. Classify is safe for concurrent use and
// never blocks on learning: learn batches are applied by a single background
// worker that swaps in a new centroid map once the batch is done.
//
//	svc := vsm.New(vsm.Options{Logger: logger})
//	defer svc.Close()
//	if _, err := svc.LoadModelFile("model.json"); err != nil {
//	    logger.Warn("running untrained", "error", err)
//	}
//	res := svc.Classify("50% off", "deals@shop.com", body)
package vsm
