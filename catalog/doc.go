// Package catalog stores the hotel catalogue in SQLite and answers "hotels
// near this place" queries.
//
// Hotels live in the hotels table; a change log (see package changelog)
// versions the table so the in-memory spatial index built by Finder can be
// reused until a hotel is added, moved or removed. Built indexes are
// persisted zstd-compressed in index_storage so a fresh process can skip the
// rebuild.
package catalog
