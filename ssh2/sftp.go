package ssh2

// OpenFlag controls how an SFTP file is opened. Flags combine with
// bitwise or.
type OpenFlag int

const (
	OpenRead     OpenFlag = 1 << 0
	OpenWrite    OpenFlag = 1 << 1
	OpenAppend   OpenFlag = 1 << 2
	OpenCreate   OpenFlag = 1 << 3
	OpenTruncate OpenFlag = 1 << 4
	OpenExcl     OpenFlag = 1 << 5
)

// FileAttr holds the attributes of a remote file.
type FileAttr struct {
	Size  uint64
	UID   uint32
	GID   uint32
	Perm  uint32
	Atime uint64
	Mtime uint64
}

// DirEntry is a single directory listing entry.
type DirEntry struct {
	Name string
	Attr FileAttr
}

// SFTP is a synchronous handle on the SFTP subsystem. Like the session it
// belongs to, all methods are non-blocking and may return [ErrWouldBlock].
type SFTP interface {
	// OpenFile opens or creates a remote file.
	OpenFile(path string, flags OpenFlag, mode uint32) (File, error)

	// OpenDir opens a directory for listing.
	OpenDir(path string) (Dir, error)

	Mkdir(path string, mode uint32) error
	Rmdir(path string) error
	Remove(path string) error
	Rename(oldpath, newpath string) error
	Stat(path string) (FileAttr, error)
	Lstat(path string) (FileAttr, error)
	Symlink(target, link string) error
	ReadLink(path string) (string, error)

	// RealPath canonicalizes a remote path.
	RealPath(path string) (string, error)

	// Close shuts the subsystem channel down.
	Close() error
}

// File is an open remote file. Read returns (0, io.EOF) at end of file.
type File interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Stat() (FileAttr, error)
	Sync() error

	// Seek repositions the file offset. Pure handle state, never blocks.
	Seek(offset uint64)

	Close() error
}

// Dir is an open remote directory. ReadDir returns io.EOF after the last
// entry.
type Dir interface {
	ReadDir() (DirEntry, error)
	Close() error
}
