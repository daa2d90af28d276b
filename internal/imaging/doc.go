// Package imaging loads source images for the resize pipeline.
//
// This package decodes images from files, raw bytes and data: URLs into cached
// Handles. It also selects source regions and parses the colour strings used
// for canvas backgrounds. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Supported Formats
//
// Decoding supports PNG, JPEG, GIF, BMP, TIFF and WebP. The format is sniffed
// from the content, never taken from a file extension. JPEG goes through
// github.com/gen2brain/jpegn, which honours the EXIF orientation tag.
//
// # Thread Safety
//
// The Loader is safe for concurrent use. Handles are read-only and can be
// shared between goroutines.
//
// # Color Representation
//
// Colours are written as hex strings:
//   - "#rgb" and "#rrggbb" for opaque colours
//   - "#rrggbbaa" when an alpha channel is needed
//   - a handful of CSS names such as "white" and "transparent"
//
// # Regions
//
// A region is either "x1,y1,x2,y2" relative to the image origin or one of
// RegionNames. Handle.Region shares pixels with the source where the image
// type allows it.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during image loading
//   - Content that is not an image or cannot be decoded
//   - Malformed data URLs and colour strings
//   - Regions that are empty or fall outside the image
package imaging
