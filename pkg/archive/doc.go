// Package archive acquires documents from an Internet Archive compatible
// service: metadata search through the advancedsearch endpoint and full-text
// download through item metadata plus file downloads.
//
// Downloads are rate-limited and size-bounded. Extraction understands plain
// text, gzip-compressed OCR text and EPUB containers; anything else is
// skipped. A document that yields no text is reported as empty, the caller
// treats it as contributing nothing.
package archive
