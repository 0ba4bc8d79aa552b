// Package match defines the harvested data model and the pure text
// decomposition helpers shared by the extractor and the store.
//
// The decomposition functions (ParseCategory, ParseVictory) never fail:
// input that does not match the expected shape degrades to empty fields,
// mirroring the tolerance of the source pages themselves.
package match
