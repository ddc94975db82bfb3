// Package storage persists datebook events as a single JSON file.
//
// The file is an object mapping YYYY-MM-DD keys to arrays of
// {"name", "detail"} objects. Older files store bare name strings instead;
// those buckets are normalized to records with an empty detail when loaded
// and written back in the current shape on the next save. A missing file
// loads as an empty calendar. Saves write a temporary file in the same
// directory and rename it over the old one, so a failed save leaves the
// previous file untouched.
//
// The default location is ~/.local/share/datebook/events.json.
package storage
