// Package segment splits raw document text into bounded chunks suitable for
// vector indexing. It offers several strategies chosen by text shape and
// always degrades to a fixed-width character splitter, so segmentation never
// fails the pipeline.
package segment
