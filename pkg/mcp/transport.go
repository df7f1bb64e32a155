package mcp

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	stdioSchemePrefix = "stdio://"
	sseSchemePrefix   = "sse://"
)

// TransportKind names the wire a spec resolves to.
type TransportKind string

const (
	TransportStdio      TransportKind = "stdio"
	TransportSSE        TransportKind = "sse"
	TransportStreamable TransportKind = "streamable"
)

// TransportSpec is a parsed server address.
type TransportSpec struct {
	Kind     TransportKind
	Command  string
	Args     []string
	Endpoint string
}

// ParseTransportSpec resolves a server address. Accepted forms:
//
//	stdio://cmd args      command line over stdio
//	sse://host/path       SSE, https assumed when no scheme is given
//	http+sse://host/path  SSE
//	http+stream://host    streamable HTTP (also +streamable, +http, +json)
//	http(s)://host/path   SSE
//	server.py, server.js  script run with python or node
//	anything else         command line over stdio
func ParseTransportSpec(spec string) (TransportSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return TransportSpec{}, fmt.Errorf("transport spec is empty")
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		return parseCommand(spec[len(stdioSchemePrefix):])
	case strings.HasPrefix(lowered, sseSchemePrefix):
		endpoint, err := normalizeHTTPURL(spec[len(sseSchemePrefix):], true)
		if err != nil {
			return TransportSpec{}, fmt.Errorf("invalid SSE endpoint: %w", err)
		}
		return TransportSpec{Kind: TransportSSE, Endpoint: endpoint}, nil
	}

	if kind, endpoint, matched, err := parseHTTPFamilySpec(spec); err != nil {
		return TransportSpec{}, err
	} else if matched {
		return TransportSpec{Kind: kind, Endpoint: endpoint}, nil
	}

	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		endpoint, err := normalizeHTTPURL(spec, false)
		if err != nil {
			return TransportSpec{}, fmt.Errorf("invalid SSE endpoint: %w", err)
		}
		return TransportSpec{Kind: TransportSSE, Endpoint: endpoint}, nil
	}

	return parseCommand(spec)
}

// parseCommand splits a command line. A lone script path gets its interpreter.
func parseCommand(cmdSpec string) (TransportSpec, error) {
	parts := strings.Fields(strings.TrimSpace(cmdSpec))
	if len(parts) == 0 {
		return TransportSpec{}, fmt.Errorf("stdio command is empty")
	}
	if interpreter := scriptInterpreter(parts[0]); interpreter != "" {
		return TransportSpec{Kind: TransportStdio, Command: interpreter, Args: parts}, nil
	}
	return TransportSpec{Kind: TransportStdio, Command: parts[0], Args: parts[1:]}, nil
}

func scriptInterpreter(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return "python"
	case ".js":
		return "node"
	}
	return ""
}

// BuildTransport turns a parsed spec into a go-sdk transport.
func BuildTransport(ctx context.Context, spec TransportSpec) (mcpsdk.Transport, error) {
	switch spec.Kind {
	case TransportStdio:
		if spec.Command == "" {
			return nil, fmt.Errorf("stdio command is empty")
		}
		// #nosec G204 -- the command comes from the operator's own invocation
		command := exec.CommandContext(nonNilContext(ctx), spec.Command, spec.Args...)
		return &mcpsdk.CommandTransport{Command: command}, nil
	case TransportSSE:
		return &mcpsdk.SSEClientTransport{Endpoint: spec.Endpoint}, nil
	case TransportStreamable:
		return &mcpsdk.StreamableClientTransport{Endpoint: spec.Endpoint}, nil
	default:
		return nil, fmt.Errorf("unsupported transport kind %q", spec.Kind)
	}
}

func parseHTTPFamilySpec(spec string) (kind TransportKind, endpoint string, matched bool, err error) {
	u, parseErr := url.Parse(strings.TrimSpace(spec))
	if parseErr != nil || u.Scheme == "" {
		return "", "", false, nil
	}
	base, hint, hasHint := strings.Cut(strings.ToLower(u.Scheme), "+")
	if !hasHint || (base != "http" && base != "https") {
		return "", "", false, nil
	}
	switch hint {
	case "sse":
		kind = TransportSSE
	case "stream", "streamable", "http", "json":
		kind = TransportStreamable
	default:
		return "", "", true, fmt.Errorf("unsupported HTTP transport hint %q", hint)
	}
	normalized := *u
	normalized.Scheme = base
	endpoint, err = normalizeHTTPURL(normalized.String(), false)
	if err != nil {
		return "", "", true, fmt.Errorf("invalid %s endpoint: %w", kind, err)
	}
	return kind, endpoint, true, nil
}

func normalizeHTTPURL(raw string, allowSchemeGuess bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	if allowSchemeGuess && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme
	return parsed.String(), nil
}

func nonNilContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
