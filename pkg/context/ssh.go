// SPDX-License-Identifier: MPL-2.0

package context

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/invowk/crewctl/pkg/fileref"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// DefaultSSHDialRetries is how many times Acquire redials a host before
// giving up, matching a multi-target run's expectation that a single
// flaky host doesn't need a whole re-invocation to recover from.
const DefaultSSHDialRetries = 3

// DefaultSSHConnectTimeout is used when an SSH context is constructed
// without an explicit WithConnectTimeout option, matching pitcrew's
// SSHContext.connect_timeout default of one second.
const DefaultSSHConnectTimeout = time.Second

// SSH runs commands on a remote host over SSH, optionally tunnelled
// through a parent SSH context (jump-host pattern). It is the Go
// rendering of pitcrew's SSHContext.
type SSH struct {
	base

	host           string
	port           int
	connectTimeout time.Duration
	dialRetries    int
	authMethods    []ssh.AuthMethod
	hostKeyCB      ssh.HostKeyCallback

	parent *SSH // nil when dialed directly, set when tunnelled

	client     *ssh.Client
	sftpClient *sftp.Client
}

// WithSSHPort sets the remote port (default 22).
func WithSSHPort(port int) SSHOption { return func(s *SSH) { s.port = port } }

// WithSSHConnectTimeout overrides the dial timeout.
func WithSSHConnectTimeout(d time.Duration) SSHOption {
	return func(s *SSH) { s.connectTimeout = d }
}

// WithSSHDialRetries overrides how many times Acquire redials on a
// transient failure before giving up (default DefaultSSHDialRetries).
func WithSSHDialRetries(n int) SSHOption {
	return func(s *SSH) { s.dialRetries = n }
}

// WithSSHKeyFile authenticates using a private key file.
func WithSSHKeyFile(path string) SSHOption {
	return func(s *SSH) {
		if auth := sshKeyFileAuth(path); auth != nil {
			s.authMethods = append(s.authMethods, auth)
		}
	}
}

// WithSSHSigner authenticates using an in-memory signer, primarily for
// tests.
func WithSSHSigner(signer ssh.Signer) SSHOption {
	return func(s *SSH) { s.authMethods = append(s.authMethods, ssh.PublicKeys(signer)) }
}

// WithSSHHostKeyCallback overrides host key verification. Without this
// option, SSHContext uses ssh.InsecureIgnoreHostKey, matching the
// teacher pack's TOFU fallback for hosts with no known_hosts entry.
func WithSSHHostKeyCallback(cb ssh.HostKeyCallback) SSHOption {
	return func(s *SSH) { s.hostKeyCB = cb }
}

func newSSH(parentCtx Context, host string, opts ...SSHOption) *SSH {
	s := &SSH{
		base:           newBase(currentUsername()),
		host:           host,
		port:           22,
		connectTimeout: DefaultSSHConnectTimeout,
		dialRetries:    DefaultSSHDialRetries,
	}
	if parent, ok := parentCtx.(*SSH); ok {
		s.parent = parent
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.authMethods) == 0 {
		if auth := sshAgentAuth(); auth != nil {
			s.authMethods = append(s.authMethods, auth)
		}
	}
	if s.hostKeyCB == nil {
		s.hostKeyCB = ssh.InsecureIgnoreHostKey() //nolint:gosec // TOFU fallback, matches aledsdavies-opal ssh_session.go
	}
	return s
}

// Acquire dials the remote host, tunnelling through the parent context's
// live connection when this SSH context was created as a child of
// another one. A failed dial is retried with exponential backoff up to
// dialRetries times before giving up, so one flaky host among a large
// --host fan-out doesn't have to fail the whole run on its first hiccup.
func (s *SSH) Acquire(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	if s.parent != nil {
		if err := s.parent.Acquire(ctx); err != nil {
			return err
		}
	}

	config := &ssh.ClientConfig{
		User:            s.user,
		Auth:            s.authMethods,
		HostKeyCallback: s.hostKeyCB,
		Timeout:         s.connectTimeout,
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	dial := func() (*ssh.Client, error) {
		if s.parent != nil {
			conn, dialErr := s.parent.client.Dial("tcp", addr)
			if dialErr != nil {
				return nil, dialErr
			}
			c, chans, reqs, handshakeErr := ssh.NewClientConn(conn, addr, config)
			if handshakeErr != nil {
				return nil, handshakeErr
			}
			return ssh.NewClient(c, chans, reqs), nil
		}
		return ssh.Dial("tcp", addr, config)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.dialRetries)), ctx)
	client, err := backoff.RetryWithData(dial, policy)
	if err != nil {
		return &ConnectionFailedError{Descriptor: s.Descriptor(), Reason: err}
	}
	s.client = client
	return nil
}

// Release closes the SSH connection and its SFTP client, if opened. The
// caller is expected to release tunnel children before their parents,
// innermost first, tearing the tunnel chain down in reverse.
func (s *SSH) Release(ctx context.Context) error {
	if s.sftpClient != nil {
		_ = s.sftpClient.Close()
		s.sftpClient = nil
	}
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

// Sh implements Context.
func (s *SSH) Sh(ctx context.Context, command string, opts ShOpts) (string, error) {
	return shImpl(ctx, s, command, opts)
}

// ShWithCode implements Context.
func (s *SSH) ShWithCode(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error) {
	prepared, err := prepareCommand(ctx, s, &s.base, command)
	if err != nil {
		return -1, nil, nil, err
	}
	logger := currentLogger()
	logger.ShellStart(s.Descriptor(), prepared)
	code, stdout, stderr, err := s.run(ctx, prepared, opts)
	logger.ShellStop(code, stdout, stderr)
	return code, stdout, stderr, err
}

// ShOk implements Context.
func (s *SSH) ShOk(ctx context.Context, command string, opts ShOpts) (bool, error) {
	code, _, _, err := s.ShWithCode(ctx, command, opts)
	if err != nil {
		return false, err
	}
	return code == 0, nil
}

// RawShWithCode implements Context.
func (s *SSH) RawShWithCode(ctx context.Context, command string) (int, []byte, []byte, error) {
	return s.run(ctx, command, ShOpts{})
}

func (s *SSH) run(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error) {
	if err := s.Acquire(ctx); err != nil {
		return -1, nil, nil, err
	}

	session, err := s.client.NewSession()
	if err != nil {
		return -1, nil, nil, &ConnectionLostError{Descriptor: s.Descriptor(), Reason: err}
	}
	defer session.Close()

	for k, v := range opts.Env {
		_ = session.Setenv(k, v)
	}
	if opts.Stdin != nil {
		session.Stdin = bytes.NewReader(opts.Stdin)
	}
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return -1, stdout.Bytes(), stderr.Bytes(), ctx.Err()
	case runErr := <-done:
		code := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*ssh.ExitError); ok {
				code = exitErr.ExitStatus()
			} else {
				return -1, stdout.Bytes(), stderr.Bytes(), &ConnectionLostError{Descriptor: s.Descriptor(), Reason: runErr}
			}
		}
		return code, stdout.Bytes(), stderr.Bytes(), nil
	}
}

// WithUser implements Context.
func (s *SSH) WithUser(user string) (restore func()) { return userRestore(&s.base, user) }

// Cd implements Context.
func (s *SSH) Cd(dir string) (restore func()) { return cdRestore(&s.base, dir) }

// RunAll implements Context.
func (s *SSH) RunAll(ctx context.Context, fns ...func(context.Context) error) error {
	return runAllWith(ctx, fns...)
}

// File implements Context.
func (s *SSH) File(path string) fileref.FileRef {
	return fileref.FileRef{Backend: s, Path: path}
}

// DockerContext implements Context, dispatching through the process-wide
// Local singleton (matching pitcrew's local_context property).
func (s *SSH) DockerContext(containerID string, opts ...DockerOption) *Docker {
	return newDocker(s, containerID, opts...)
}

// SSHContext implements Context, tunnelling the new host through this
// one.
func (s *SSH) SSHContext(host string, opts ...SSHOption) *SSH {
	return newSSH(s, host, opts...)
}

// Invoke implements Context.
func (s *SSH) Invoke(ctx context.Context, fn AdHocFunc) (any, error) {
	return invokeWith(ctx, s, fn)
}

// Esc implements Context.
func (s *SSH) Esc(text string) string { return Esc(text) }

// Descriptor implements Context.
func (s *SSH) Descriptor() string { return fmt.Sprintf("ssh:%s@%s", s.user, s.host) }

// Variant implements fileref.Backend.
func (s *SSH) Variant() string { return "ssh" }

// RunRaw implements fileref.Backend.
func (s *SSH) RunRaw(ctx context.Context, command string) (int, []byte, []byte, error) {
	return s.run(ctx, command, ShOpts{})
}

// SFTPClient implements fileref.SFTPCapable, lazily opening an SFTP
// session over the existing SSH connection.
func (s *SSH) SFTPClient(ctx context.Context) (*sftp.Client, error) {
	if err := s.Acquire(ctx); err != nil {
		return nil, err
	}
	if s.sftpClient != nil {
		return s.sftpClient, nil
	}
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, fmt.Errorf("open sftp session to %s: %w", s.Descriptor(), err)
	}
	s.sftpClient = client
	return client, nil
}

func sshKeyFileAuth(path string) ssh.AuthMethod {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil
	}
	return ssh.PublicKeys(signer)
}

func sshAgentAuth() ssh.AuthMethod {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil
	}
	agentClient := agent.NewClient(conn)
	return ssh.PublicKeysCallback(agentClient.Signers)
}
