package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/patrickmn/go-cache"
)

type Options struct {
	APIURL   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// IPFSStore keeps documents on an IPFS node through its HTTP API. Content
// is addressed by CID and never changes, so reads are cached in memory.
type IPFSStore struct {
	sh    *shell.Shell
	cache *cache.Cache
}

func NewIPFSStore(opts Options) *IPFSStore {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &IPFSStore{
		sh:    shell.NewShellWithClient(opts.APIURL, &http.Client{Timeout: opts.Timeout}),
		cache: cache.New(ttl, 2*ttl),
	}
}

// Put stores doc and returns its CID.
func (s *IPFSStore) Put(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata document: %w", err)
	}

	cid, err := s.sh.Add(bytes.NewReader(payload), shell.Pin(true))
	if err != nil {
		return "", fmt.Errorf("%w: add: %v", ErrUnavailable, err)
	}

	s.cache.SetDefault(cid, doc)
	return cid, nil
}

func (s *IPFSStore) Get(ctx context.Context, cid string) (Document, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return Document{}, ErrEmptyReference
	}

	if cached, ok := s.cache.Get(cid); ok {
		return cached.(Document), nil
	}

	resp, err := s.sh.Request("cat", cid).Send(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("%w: cat %s: %v", ErrUnavailable, cid, err)
	}
	defer resp.Close()
	if resp.Error != nil {
		return Document{}, fmt.Errorf("%w: cat %s: %v", ErrUnavailable, cid, resp.Error)
	}

	raw, err := io.ReadAll(resp.Output)
	if err != nil {
		return Document{}, fmt.Errorf("%w: read %s: %v", ErrUnavailable, cid, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("metadata %s is not a transfer document: %w", cid, err)
	}

	s.cache.SetDefault(cid, doc)
	return doc, nil
}
