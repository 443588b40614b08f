// Package ner finds named entities in stored chunks and records them in the corpus database.
//
// Recognition is delegated to a Recognizer, which returns raw labels such as
// PERSON or GPE. Labels are folded into the small person/org/place/other
// taxonomy, mention offsets are located in the chunk text as code point
// offsets, and each entity is stored under an NFKC-normalized canonical form.
//
// Chunks that are not English are skipped before recognition because the
// default recognizer is trained on English text.
package ner
