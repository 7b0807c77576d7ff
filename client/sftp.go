package client

import (
	"context"
	"io"

	"github.com/smnsjas/go-ssh2async/ssh2"
)

// SFTP bridges the SFTP subsystem of a session. All methods serialize with
// other operations on the same session.
type SFTP struct {
	sess *Session
	raw  ssh2.SFTP
}

// OpenFile opens or creates a remote file.
func (f *SFTP) OpenFile(ctx context.Context, path string, flags ssh2.OpenFlag, mode uint32) (*File, error) {
	if err := f.sess.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, f.sess, func() (ssh2.File, error) {
		return f.raw.OpenFile(path, flags, mode)
	})
	if err != nil {
		return nil, err
	}
	return &File{sess: f.sess, raw: raw, path: path}, nil
}

// Open opens a remote file for reading.
func (f *SFTP) Open(ctx context.Context, path string) (*File, error) {
	return f.OpenFile(ctx, path, ssh2.OpenRead, 0)
}

// Create opens a remote file for writing, creating it if needed and
// truncating it otherwise.
func (f *SFTP) Create(ctx context.Context, path string, mode uint32) (*File, error) {
	return f.OpenFile(ctx, path, ssh2.OpenWrite|ssh2.OpenCreate|ssh2.OpenTruncate, mode)
}

// OpenDir opens a remote directory for listing.
func (f *SFTP) OpenDir(ctx context.Context, path string) (*Dir, error) {
	if err := f.sess.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := await(ctx, f.sess, func() (ssh2.Dir, error) {
		return f.raw.OpenDir(path)
	})
	if err != nil {
		return nil, err
	}
	return &Dir{sess: f.sess, raw: raw, path: path}, nil
}

// ReadDir opens the directory, drains its entries and closes it again.
func (f *SFTP) ReadDir(ctx context.Context, path string) ([]ssh2.DirEntry, error) {
	d, err := f.OpenDir(ctx, path)
	if err != nil {
		return nil, err
	}
	var entries []ssh2.DirEntry
	for {
		entry, err := d.ReadDir(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := d.Close(ctx); err != nil {
		return nil, err
	}
	return entries, nil
}

// Mkdir creates a remote directory.
func (f *SFTP) Mkdir(ctx context.Context, path string, mode uint32) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, func() error {
		return f.raw.Mkdir(path, mode)
	})
}

// Rmdir removes a remote directory.
func (f *SFTP) Rmdir(ctx context.Context, path string) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, func() error {
		return f.raw.Rmdir(path)
	})
}

// Remove deletes a remote file.
func (f *SFTP) Remove(ctx context.Context, path string) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, func() error {
		return f.raw.Remove(path)
	})
}

// Rename moves a remote file or directory.
func (f *SFTP) Rename(ctx context.Context, oldpath, newpath string) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, func() error {
		return f.raw.Rename(oldpath, newpath)
	})
}

// Stat returns the attributes of a remote path, following symlinks.
func (f *SFTP) Stat(ctx context.Context, path string) (ssh2.FileAttr, error) {
	if err := f.sess.checkOpen(); err != nil {
		return ssh2.FileAttr{}, err
	}
	return await(ctx, f.sess, func() (ssh2.FileAttr, error) {
		return f.raw.Stat(path)
	})
}

// Lstat returns the attributes of a remote path without following symlinks.
func (f *SFTP) Lstat(ctx context.Context, path string) (ssh2.FileAttr, error) {
	if err := f.sess.checkOpen(); err != nil {
		return ssh2.FileAttr{}, err
	}
	return await(ctx, f.sess, func() (ssh2.FileAttr, error) {
		return f.raw.Lstat(path)
	})
}

// Symlink creates a symbolic link at link pointing at target.
func (f *SFTP) Symlink(ctx context.Context, target, link string) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, func() error {
		return f.raw.Symlink(target, link)
	})
}

// ReadLink resolves a symbolic link one level.
func (f *SFTP) ReadLink(ctx context.Context, path string) (string, error) {
	if err := f.sess.checkOpen(); err != nil {
		return "", err
	}
	return await(ctx, f.sess, func() (string, error) {
		return f.raw.ReadLink(path)
	})
}

// RealPath canonicalizes a remote path.
func (f *SFTP) RealPath(ctx context.Context, path string) (string, error) {
	if err := f.sess.checkOpen(); err != nil {
		return "", err
	}
	return await(ctx, f.sess, func() (string, error) {
		return f.raw.RealPath(path)
	})
}

// Close shuts the subsystem channel down.
func (f *SFTP) Close(ctx context.Context) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, f.raw.Close)
}

// File is an awaitable open remote file.
type File struct {
	sess *Session
	raw  ssh2.File
	path string
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Read reads from the file at its current offset. End of file is reported
// as (0, io.EOF).
func (f *File) Read(ctx context.Context, p []byte) (int, error) {
	if err := f.sess.checkOpen(); err != nil {
		return 0, err
	}
	return await(ctx, f.sess, func() (int, error) {
		return f.raw.Read(p)
	})
}

// Write writes to the file at its current offset. Short writes are returned
// as-is.
func (f *File) Write(ctx context.Context, p []byte) (int, error) {
	if err := f.sess.checkOpen(); err != nil {
		return 0, err
	}
	return await(ctx, f.sess, func() (int, error) {
		return f.raw.Write(p)
	})
}

// Stat returns the file's attributes.
func (f *File) Stat(ctx context.Context) (ssh2.FileAttr, error) {
	if err := f.sess.checkOpen(); err != nil {
		return ssh2.FileAttr{}, err
	}
	return await(ctx, f.sess, f.raw.Stat)
}

// Sync asks the server to flush the file to stable storage.
func (f *File) Sync(ctx context.Context) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, f.raw.Sync)
}

// Seek repositions the file offset. Pure handle state, never blocks.
func (f *File) Seek(offset uint64) {
	f.raw.Seek(offset)
}

// Close releases the remote handle.
func (f *File) Close(ctx context.Context) error {
	if err := f.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, f.sess, f.raw.Close)
}

// IO binds the file to a context and adapts it to io.ReadWriter.
func (f *File) IO(ctx context.Context) io.ReadWriter {
	return &fileIO{ctx: ctx, f: f}
}

type fileIO struct {
	ctx context.Context
	f   *File
}

func (r *fileIO) Read(p []byte) (int, error) {
	return r.f.Read(r.ctx, p)
}

func (r *fileIO) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := r.f.Write(r.ctx, p[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// Dir is an awaitable open remote directory.
type Dir struct {
	sess *Session
	raw  ssh2.Dir
	path string
}

// ReadDir returns the next directory entry, or io.EOF after the last one.
func (d *Dir) ReadDir(ctx context.Context) (ssh2.DirEntry, error) {
	if err := d.sess.checkOpen(); err != nil {
		return ssh2.DirEntry{}, err
	}
	return await(ctx, d.sess, d.raw.ReadDir)
}

// Close releases the remote handle.
func (d *Dir) Close(ctx context.Context) error {
	if err := d.sess.checkOpen(); err != nil {
		return err
	}
	return awaitUnit(ctx, d.sess, d.raw.Close)
}
