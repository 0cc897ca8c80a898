// SPDX-License-Identifier: MPL-2.0

// Package fileref implements cross-context file references and copies —
// the Go rendering of pitcrew's file.py. A FileRef pairs a backend with a
// path; copying between two references is dispatched by the ordered pair
// of their backend variants, across a Local/SSH/Docker copier table.
package fileref

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/sftp"
)

// ErrUnsupportedCopy is returned when no copier is registered for a pair
// of backend variants.
var ErrUnsupportedCopy = errors.New("unsupported copy between context variants")

// Backend is the minimal surface fileref needs from an execution context:
// enough to shell out to cp/docker cp and to identify itself for the
// copier lookup table. pkg/context's Local, SSH, and Docker types satisfy
// this (and the optional capability interfaces below) without fileref
// importing pkg/context, avoiding an import cycle between the two
// packages that both need the other's concrete type.
type Backend interface {
	// Variant identifies the backend kind: "local", "ssh", or "docker".
	Variant() string
	// Descriptor returns a short human-readable identity for logging.
	Descriptor() string
	// Esc shell-escapes text for safe interpolation into a command.
	Esc(text string) string
	// RunRaw runs command on the backend's own transport, unprepared
	// (no cwd/user wrapping), returning its exit code and captured
	// output. Used for "cp", "docker cp", etc.
	RunRaw(ctx context.Context, command string) (code int, stdout, stderr []byte, err error)
}

// SFTPCapable is implemented by backends (SSH) that can hand fileref a
// live *sftp.Client for remote-local file transfer.
type SFTPCapable interface {
	SFTPClient(ctx context.Context) (*sftp.Client, error)
}

// LocalHost is implemented by backends (Local) that resolve a path
// directly on the machine fileref itself runs on.
type LocalHost interface {
	Backend
	ResolvePath(path string) (string, error)
}

// DockerHost is implemented by backends (Docker) that dispatch commands
// through an underlying Local backend and expose their container id, so
// fileref can shell "docker cp" through that Local backend.
type DockerHost interface {
	Backend
	ContainerID() string
	LocalBackend() Backend
}

// FileRef is a (backend, path) pair — a reference to a file on some
// context's filesystem.
type FileRef struct {
	Backend Backend
	Path    string
}

// CopyOptions configures a cross-context copy.
type CopyOptions struct {
	// Archive preserves permissions/ownership and recurses into
	// directories (cp -a / sftp recursive / docker cp -a).
	Archive bool
	// Owner, if set, chowns the destination after copying ("user" or
	// "user:group").
	Owner string
	// Mode, if non-zero, chmods the destination after copying.
	Mode os.FileMode
}

type copierFunc func(ctx context.Context, src, dst FileRef, opts CopyOptions) error

var copiers = map[[2]string]copierFunc{
	{"local", "local"}:   copyLocalLocal,
	{"ssh", "local"}:     copySSHToLocal,
	{"local", "ssh"}:     copyLocalToSSH,
	{"docker", "local"}:  copyDockerToLocal,
	{"local", "docker"}:  copyLocalToDocker,
}

// CopyTo copies f to dest according to opts, dispatching on the ordered
// pair of their backend variants under a copy logging scope. Post-copy
// it applies Owner/Mode when set.
func (f FileRef) CopyTo(ctx context.Context, dest FileRef, opts CopyOptions) (err error) {
	key := [2]string{f.Backend.Variant(), dest.Backend.Variant()}
	copier, ok := copiers[key]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrUnsupportedCopy, key[0], key[1])
	}

	scope := currentLogger().OpenCopy(f.Backend.Descriptor(), f.Path, dest.Backend.Descriptor(), dest.Path)
	defer func() { scope.Close(err) }()

	if err = copier(ctx, f, dest, opts); err != nil {
		return err
	}
	return applyOwnerMode(ctx, dest, opts)
}

func applyOwnerMode(ctx context.Context, dest FileRef, opts CopyOptions) error {
	if opts.Owner != "" {
		cmd := fmt.Sprintf("chown %s %s", dest.Backend.Esc(opts.Owner), dest.Backend.Esc(dest.Path))
		if code, _, stderr, err := dest.Backend.RunRaw(ctx, cmd); err != nil || code != 0 {
			return fmt.Errorf("chown %s failed (code %d): %v: %s", dest.Path, code, err, stderr)
		}
	}
	if opts.Mode != 0 {
		cmd := fmt.Sprintf("chmod %o %s", opts.Mode.Perm(), dest.Backend.Esc(dest.Path))
		if code, _, stderr, err := dest.Backend.RunRaw(ctx, cmd); err != nil || code != 0 {
			return fmt.Errorf("chmod %s failed (code %d): %v: %s", dest.Path, code, err, stderr)
		}
	}
	return nil
}

func copyLocalLocal(ctx context.Context, src, dst FileRef, opts CopyOptions) error {
	srcHost, ok := src.Backend.(LocalHost)
	if !ok {
		return fmt.Errorf("%w: source is not a local host", ErrUnsupportedCopy)
	}
	dstHost, ok := dst.Backend.(LocalHost)
	if !ok {
		return fmt.Errorf("%w: destination is not a local host", ErrUnsupportedCopy)
	}
	srcPath, err := srcHost.ResolvePath(src.Path)
	if err != nil {
		return err
	}
	dstPath, err := dstHost.ResolvePath(dst.Path)
	if err != nil {
		return err
	}

	args := []string{srcPath, dstPath}
	if opts.Archive {
		args = append([]string{"-a"}, args...)
	} else {
		args = append([]string{"-f"}, args...)
	}
	out, err := exec.CommandContext(ctx, "cp", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("cp %s %s: %w: %s", srcPath, dstPath, err, out)
	}
	return nil
}

func copySSHToLocal(ctx context.Context, src, dst FileRef, opts CopyOptions) error {
	sftpSrc, ok := src.Backend.(SFTPCapable)
	if !ok {
		return fmt.Errorf("%w: source does not support sftp", ErrUnsupportedCopy)
	}
	localDst, ok := dst.Backend.(LocalHost)
	if !ok {
		return fmt.Errorf("%w: destination is not a local host", ErrUnsupportedCopy)
	}
	client, err := sftpSrc.SFTPClient(ctx)
	if err != nil {
		return err
	}

	dstPath, err := localDst.ResolvePath(dst.Path)
	if err != nil {
		return err
	}

	if opts.Archive {
		return sftpDownloadRecursive(client, src.Path, dstPath)
	}

	remote, err := client.Open(src.Path)
	if err != nil {
		return fmt.Errorf("sftp open %s: %w", src.Path, err)
	}
	defer remote.Close()

	local, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dstPath, err)
	}
	defer local.Close()

	if _, err := remote.WriteTo(local); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src.Path, dstPath, err)
	}
	return nil
}

// sftpDownloadRecursive copies remotePath (file or directory tree) to
// localPath, preserving each entry's mode, the recursive+preserve
// behavior CopyOptions.Archive requests over SFTP.
func sftpDownloadRecursive(client *sftp.Client, remotePath, localPath string) error {
	info, err := client.Stat(remotePath)
	if err != nil {
		return fmt.Errorf("sftp stat %s: %w", remotePath, err)
	}
	if !info.IsDir() {
		remote, err := client.Open(remotePath)
		if err != nil {
			return fmt.Errorf("sftp open %s: %w", remotePath, err)
		}
		defer remote.Close()
		local, err := os.Create(localPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", localPath, err)
		}
		defer local.Close()
		if _, err := remote.WriteTo(local); err != nil {
			return fmt.Errorf("copy %s -> %s: %w", remotePath, localPath, err)
		}
		return os.Chmod(localPath, info.Mode())
	}

	if err := os.MkdirAll(localPath, info.Mode()); err != nil {
		return fmt.Errorf("mkdir %s: %w", localPath, err)
	}
	entries, err := client.ReadDir(remotePath)
	if err != nil {
		return fmt.Errorf("sftp readdir %s: %w", remotePath, err)
	}
	for _, entry := range entries {
		if err := sftpDownloadRecursive(client, path.Join(remotePath, entry.Name()), filepath.Join(localPath, entry.Name())); err != nil {
			return err
		}
	}
	return os.Chmod(localPath, info.Mode())
}

func copyLocalToSSH(ctx context.Context, src, dst FileRef, opts CopyOptions) error {
	sftpDst, ok := dst.Backend.(SFTPCapable)
	if !ok {
		return fmt.Errorf("%w: destination does not support sftp", ErrUnsupportedCopy)
	}
	localSrc, ok := src.Backend.(LocalHost)
	if !ok {
		return fmt.Errorf("%w: source is not a local host", ErrUnsupportedCopy)
	}
	client, err := sftpDst.SFTPClient(ctx)
	if err != nil {
		return err
	}

	srcPath, err := localSrc.ResolvePath(src.Path)
	if err != nil {
		return err
	}

	if opts.Archive {
		return sftpUploadRecursive(client, srcPath, dst.Path)
	}

	local, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer local.Close()

	remote, err := client.Create(dst.Path)
	if err != nil {
		return fmt.Errorf("sftp create %s: %w", dst.Path, err)
	}
	defer remote.Close()

	if _, err := remote.ReadFrom(local); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", srcPath, dst.Path, err)
	}
	return nil
}

// sftpUploadRecursive copies localPath (file or directory tree) to
// remotePath, preserving each entry's mode, the recursive+preserve
// behavior CopyOptions.Archive requests over SFTP.
func sftpUploadRecursive(client *sftp.Client, localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	if !info.IsDir() {
		local, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", localPath, err)
		}
		defer local.Close()
		remote, err := client.Create(remotePath)
		if err != nil {
			return fmt.Errorf("sftp create %s: %w", remotePath, err)
		}
		defer remote.Close()
		if _, err := remote.ReadFrom(local); err != nil {
			return fmt.Errorf("copy %s -> %s: %w", localPath, remotePath, err)
		}
		return client.Chmod(remotePath, info.Mode())
	}

	if err := client.MkdirAll(remotePath); err != nil {
		return fmt.Errorf("sftp mkdir %s: %w", remotePath, err)
	}
	entries, err := os.ReadDir(localPath)
	if err != nil {
		return fmt.Errorf("readdir %s: %w", localPath, err)
	}
	for _, entry := range entries {
		if err := sftpUploadRecursive(client, filepath.Join(localPath, entry.Name()), path.Join(remotePath, entry.Name())); err != nil {
			return err
		}
	}
	return client.Chmod(remotePath, info.Mode())
}

func copyDockerToLocal(ctx context.Context, src, dst FileRef, opts CopyOptions) error {
	dockerSrc, ok := src.Backend.(DockerHost)
	if !ok {
		return fmt.Errorf("%w: source is not a docker host", ErrUnsupportedCopy)
	}
	local := dockerSrc.LocalBackend()
	cmd := fmt.Sprintf("docker cp %s%s:%s %s", archiveFlag(opts), dockerSrc.ContainerID(), local.Esc(src.Path), local.Esc(dst.Path))
	return runThroughLocal(ctx, local, cmd)
}

func copyLocalToDocker(ctx context.Context, src, dst FileRef, opts CopyOptions) error {
	dockerDst, ok := dst.Backend.(DockerHost)
	if !ok {
		return fmt.Errorf("%w: destination is not a docker host", ErrUnsupportedCopy)
	}
	local := dockerDst.LocalBackend()
	cmd := fmt.Sprintf("docker cp %s%s %s:%s", archiveFlag(opts), local.Esc(src.Path), dockerDst.ContainerID(), local.Esc(dst.Path))
	return runThroughLocal(ctx, local, cmd)
}

// archiveFlag renders docker cp's -a flag, trailing a space so callers
// can splice it directly before the next argument.
func archiveFlag(opts CopyOptions) string {
	if opts.Archive {
		return "-a "
	}
	return ""
}

func runThroughLocal(ctx context.Context, local Backend, cmd string) error {
	code, _, stderr, err := local.RunRaw(ctx, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s: exit %d: %s", cmd, code, strings.TrimSpace(string(stderr)))
	}
	return nil
}
