// Package scrape builds a collection document from chain data: it finds every
// metadata account that names a collection, then fetches each token's JSON
// metadata for its name, image and attributes.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/mintpick/internal/collection"
)

// Default fetch settings.
const (
	DefaultConcurrency     = 64
	DefaultFetchRetries    = 8
	DefaultFetchRetryDelay = 500 * time.Millisecond
	maxFetchDelay          = 30 * time.Second
	maxMetadataBytes       = 4 << 20
)

// ErrInvalidCollection is returned when the collection address is not a public key.
var ErrInvalidCollection = errors.New("invalid collection address")

// errPermanent marks a fetch failure that retrying will not fix.
var errPermanent = errors.New("permanent")

// AccountSource lists program accounts. RPCClient implements it.
type AccountSource interface {
	GetProgramAccounts(ctx context.Context, program string, filters ...Filter) ([]ProgramAccount, error)
}

// Stats counts the outcome of a scrape.
type Stats struct {
	Accounts int
	Parsed   int
	Skipped  int
}

// Scraper turns a collection address into a dataset.
type Scraper struct {
	accounts    AccountSource
	client      *http.Client
	log         *zap.Logger
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger for progress and skipped tokens.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scraper) {
		if log != nil {
			s.log = log
		}
	}
}

// WithConcurrency caps how many metadata documents are fetched at once.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFetchRetries sets how often a metadata fetch is retried and the first backoff delay.
func WithFetchRetries(n int, delay time.Duration) Option {
	return func(s *Scraper) {
		s.maxRetries = n
		s.retryDelay = delay
	}
}

// WithFetchClient sets the http.Client used for metadata documents.
func WithFetchClient(client *http.Client) Option {
	return func(s *Scraper) {
		s.client = client
	}
}

// New creates a Scraper reading accounts from src.
func New(src AccountSource, opts ...Option) *Scraper {
	s := &Scraper{
		accounts:    src,
		client:      &http.Client{Timeout: DefaultTimeout},
		log:         zap.NewNop(),
		concurrency: DefaultConcurrency,
		maxRetries:  DefaultFetchRetries,
		retryDelay:  DefaultFetchRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scrapes the collection at address. Tokens whose metadata cannot be read
// are skipped and counted; only RPC failures and cancellation abort the run.
func (s *Scraper) Run(ctx context.Context, address string) (*collection.Dataset, Stats, error) {
	key, err := base58.Decode(address)
	if err != nil || len(key) != 32 {
		return nil, Stats{}, fmt.Errorf("%w: %q", ErrInvalidCollection, address)
	}
	address = base58.Encode(key)

	s.log.Info("fetching collection metadata", zap.String("collection", address))
	name, err := s.collectionName(ctx, address)
	if err != nil {
		return nil, Stats{}, err
	}

	s.log.Info("fetching on-chain metadata", zap.String("collection", address))
	items, stats, err := s.members(ctx, address)
	if err != nil {
		return nil, Stats{}, err
	}

	results := make([]*fetched, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, md := range items {
		i, md := i, md
		g.Go(func() error {
			f, err := s.fetchToken(gctx, md)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.Warn("token skipped",
					zap.String("mint", md.Mint),
					zap.String("uri", md.URI),
					zap.Error(err),
				)
				return nil
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	ds := &collection.Dataset{Name: name, Tokens: make([]collection.Token, 0, len(items)), TraitTypes: []string{}}
	seen := make(map[string]bool)
	for _, f := range results {
		if f == nil {
			stats.Skipped++
			continue
		}
		for _, k := range f.keys {
			if !seen[k] {
				seen[k] = true
				ds.TraitTypes = append(ds.TraitTypes, k)
			}
		}
		ds.Tokens = append(ds.Tokens, f.token)
	}
	stats.Parsed = len(ds.Tokens)

	s.log.Info("scrape finished",
		zap.String("collection", address),
		zap.String("name", name),
		zap.Int("parsed", stats.Parsed),
		zap.Int("skipped", stats.Skipped),
	)
	return ds, stats, nil
}

// collectionName reads the name from the collection mint's own metadata account.
// A collection without one has an empty name.
func (s *Scraper) collectionName(ctx context.Context, address string) (string, error) {
	accs, err := s.accounts.GetProgramAccounts(ctx, TokenMetadataProgram,
		Filter{Memcmp: &Memcmp{Offset: mintOffset, Bytes: address}},
	)
	if err != nil {
		return "", fmt.Errorf("collection metadata: %w", err)
	}
	for _, acc := range accs {
		md, err := DecodeMetadata(acc.Data)
		if err != nil {
			s.log.Warn("collection metadata unreadable", zap.String("account", acc.Pubkey), zap.Error(err))
			continue
		}
		return md.Name, nil
	}
	s.log.Warn("collection has no metadata account", zap.String("collection", address))
	return "", nil
}

// members returns the decoded metadata of every token that names the collection,
// in RPC order and without duplicates.
func (s *Scraper) members(ctx context.Context, address string) ([]Metadata, Stats, error) {
	var (
		stats Stats
		out   []Metadata
		seen  = make(map[string]bool)
	)
	for _, offset := range collectionOffsets {
		accs, err := s.accounts.GetProgramAccounts(ctx, TokenMetadataProgram,
			Filter{DataSize: metadataAccountSize},
			Filter{Memcmp: &Memcmp{Offset: offset, Bytes: address}},
		)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("metadata accounts at offset %d: %w", offset, err)
		}
		for _, acc := range accs {
			if seen[acc.Pubkey] {
				continue
			}
			seen[acc.Pubkey] = true
			stats.Accounts++

			md, err := DecodeMetadata(acc.Data)
			if err != nil {
				stats.Skipped++
				s.log.Warn("token skipped", zap.String("account", acc.Pubkey), zap.Error(err))
				continue
			}
			out = append(out, md)
		}
	}
	return out, stats, nil
}

type fetched struct {
	token collection.Token
	keys  []string
}

type offChainMetadata struct {
	Name       string     `json:"name"`
	Image      string     `json:"image"`
	Attributes attributes `json:"attributes"`
}

type attribute struct {
	TraitType string          `json:"trait_type"`
	Value     json.RawMessage `json:"value"`
}

// attributes accepts either a list of attributes or a single attribute object.
type attributes []attribute

func (a *attributes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one attribute
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*a = attributes{one}
		return nil
	}
	var many []attribute
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

func (s *Scraper) fetchToken(ctx context.Context, md Metadata) (*fetched, error) {
	uri := strings.TrimSpace(md.URI)
	if uri == "" {
		return nil, fmt.Errorf("empty metadata uri")
	}
	s.log.Debug("fetching", zap.String("uri", uri))

	body, err := s.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	var doc offChainMetadata
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}

	f := &fetched{token: collection.Token{
		Image:  doc.Image,
		Name:   doc.Name,
		Mint:   md.Mint,
		Traits: make(map[string]string, len(doc.Attributes)),
	}}
	for _, attr := range doc.Attributes {
		if attr.TraitType == "" {
			continue
		}
		text, present, err := collection.TraitText(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("parse %s: trait %q: %w", uri, attr.TraitType, err)
		}
		if !present {
			continue
		}
		if _, dup := f.token.Traits[attr.TraitType]; !dup {
			f.keys = append(f.keys, attr.TraitType)
		}
		f.token.Traits[attr.TraitType] = text
	}
	return f, nil
}

// fetch GETs uri with exponential backoff. Client errors other than 429 are not retried.
func (s *Scraper) fetch(ctx context.Context, uri string) ([]byte, error) {
	delay := s.retryDelay
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxFetchDelay {
				delay = maxFetchDelay
			}
		}

		body, err := s.fetchOnce(ctx, uri)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errPermanent) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s: max retries exceeded: %w", uri, lastErr)
}

func (s *Scraper) fetchOnce(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %v", uri, errPermanent, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch %s: status %d", uri, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			err = fmt.Errorf("%w (%w)", err, errPermanent)
		}
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", uri, err)
	}
	return body, nil
}
