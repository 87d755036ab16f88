// Package frame defines the structured records read and written by the
// cross-reference builder.
//
// A Frame is an ordered list of named slots. Slot values are strings, refs to
// other frames, numbers or nested anonymous frames. The reserved slots are
// "id" (primary id, repeatable), "is" (redirect target) and "isa" (type).
//
// Frames are stored one per record in record files, encoded with a
// codec.Codec and keyed by the frame id.
package frame
