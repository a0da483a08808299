// Package persistence reads and writes qbasis artifacts through a
// blobstore.BlobStore.
//
// Every artifact starts with a 64-byte little-endian FileHeader:
//
//	Magic "QBS1" | Version | Kind | Compression | StateWidth | NormKind | Codec | pad
//	Count | RawSize | DataSize | CRC32C | reserved
//
// followed by DataSize bytes of payload. The payload is a sequence of
// compressed blocks (see CompressionType) that inflate to RawSize bytes. The
// checksum covers the stored payload, so corruption is detected before
// decompression.
//
// A basis payload is Count states of StateWidth bytes followed by Count
// 8-byte norms. An expansion payload is an nlce.Snapshot encoded with the
// codec named in the header.
package persistence
