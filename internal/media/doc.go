// Package media stores uploaded asset bytes and inspects them.
//
// BlobStore writes content-addressed files below the media directory, hashing
// with BLAKE3 while streaming so duplicate uploads can be detected without a
// second pass. Detect decides whether a file is an accepted photo or video
// format from its extension and leading bytes, and Probe reads pixel
// dimensions for the formats Go can decode (JPEG, PNG, GIF, TIFF, WebP).
package media
