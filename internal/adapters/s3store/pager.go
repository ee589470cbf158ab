package s3store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/target/review-ingest/internal/core"
	"github.com/target/review-ingest/internal/domain/model"
	apperrors "github.com/target/review-ingest/internal/errors"
)

// DefaultMaxLineBytes bounds a single line, newline included.
const DefaultMaxLineBytes = 8 << 20

const readBufferSize = 64 << 10

// ErrLineTooLong is returned when a line exceeds the pager's MaxLineBytes.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// PagerOptions configures a Pager.
type PagerOptions struct {
	MaxLineBytes int
	Logger       *slog.Logger
}

// cursor remembers where the previous page of an object ended.
type cursor struct {
	line   int
	offset int64
	etag   *string
	eof    bool
}

// Pager reads pages of lines from objects. It keeps a byte cursor per object so a page
// that continues where the previous one ended resumes with a ranged GET.
type Pager struct {
	api     API
	maxLine int
	logger  *slog.Logger

	mu      sync.Mutex
	cursors map[string]cursor
}

var _ core.LinePager = (*Pager)(nil)

// NewPager creates a Pager backed by api.
func NewPager(api API, opts PagerOptions) *Pager {
	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pager{
		api:     api,
		maxLine: maxLine,
		logger:  logger.With("component", "s3_pager"),
		cursors: make(map[string]cursor),
	}
}

func cursorKey(ref model.ObjectRef) string {
	return ref.Bucket + "/" + ref.Key
}

// ReadLines returns up to pageSize lines starting at the zero-based startLine. An empty
// result means the object has no lines at or after startLine.
func (p *Pager) ReadLines(ctx context.Context, ref model.ObjectRef, startLine, pageSize int) ([]string, error) {
	if pageSize <= 0 {
		return nil, apperrors.Validationf("page size must be positive, got %d", pageSize)
	}
	if startLine < 0 {
		return nil, apperrors.Validationf("start line must be >= 0, got %d", startLine)
	}

	key := cursorKey(ref)
	cur, resume := p.cursor(key, startLine)
	if resume && cur.eof {
		p.forget(key)
		return nil, nil
	}

	lines, next, err := p.readPage(ctx, ref, cur, resume, startLine, pageSize)
	if err != nil {
		p.forget(key)
		return nil, err
	}
	if len(lines) == 0 {
		p.forget(key)
		return nil, nil
	}
	p.store(key, next)
	return lines, nil
}

func (p *Pager) readPage(
	ctx context.Context,
	ref model.ObjectRef,
	cur cursor,
	resume bool,
	startLine, pageSize int,
) ([]string, cursor, error) {
	in := &s3.GetObjectInput{Bucket: aws.String(ref.Bucket), Key: aws.String(ref.Key)}
	skip := startLine
	offset := int64(0)
	if resume {
		in.Range = aws.String("bytes=" + strconv.FormatInt(cur.offset, 10) + "-")
		in.IfMatch = cur.etag
		skip = 0
		offset = cur.offset
	}

	out, err := p.api.GetObject(ctx, in)
	if resume && err != nil {
		switch apiErrorCode(err) {
		case codeInvalidRange:
			// The previous page ended exactly at the end of the object.
			return nil, cursor{}, nil
		case codePreconditionFailed:
			p.logger.WarnContext(ctx, "object changed between pages, rereading from start",
				"bucket", ref.Bucket, "key", ref.Key, "start_line", startLine)
			return p.readPage(ctx, ref, cursor{}, false, startLine, pageSize)
		}
	}
	if err != nil {
		return nil, cursor{}, wrapAPIError(err, "get", ref.Bucket, ref.Key)
	}
	defer func() { _ = out.Body.Close() }()

	r := bufio.NewReaderSize(out.Body, readBufferSize)
	next := cursor{line: startLine, offset: offset, etag: out.ETag}

	for range skip {
		_, n, readErr := p.readLine(r)
		next.offset += int64(n)
		if errors.Is(readErr, io.EOF) {
			return nil, next, nil
		}
		if readErr != nil {
			return nil, cursor{}, fmt.Errorf("skip to line %d of s3://%s/%s: %w", startLine, ref.Bucket, ref.Key, readErr)
		}
	}

	lines := make([]string, 0, pageSize)
	for len(lines) < pageSize {
		line, n, readErr := p.readLine(r)
		if n > 0 {
			lines = append(lines, line)
			next.offset += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			next.eof = true
			break
		}
		if readErr != nil {
			return nil, cursor{}, fmt.Errorf("read line %d of s3://%s/%s: %w",
				startLine+len(lines), ref.Bucket, ref.Key, readErr)
		}
	}
	next.line = startLine + len(lines)
	if ref.Size > 0 && next.offset >= ref.Size {
		next.eof = true
	}
	return lines, next, nil
}

// readLine returns the next line without its terminator and the number of bytes consumed.
// A final line without a newline is returned together with io.EOF.
func (p *Pager) readLine(r *bufio.Reader) (string, int, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > p.maxLine {
			return "", len(buf), fmt.Errorf("%w (%d bytes)", ErrLineTooLong, p.maxLine)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		n := len(buf)
		line := bytes.TrimSuffix(buf, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if err == nil && n > 0 && buf[n-1] == '\n' {
			return string(line), n, nil
		}
		if err == nil {
			err = io.EOF
		}
		return string(line), n, err
	}
}

func (p *Pager) cursor(key string, startLine int) (cursor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cursors[key]
	if !ok || c.line != startLine {
		return cursor{}, false
	}
	return c, true
}

func (p *Pager) store(key string, c cursor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors[key] = c
}

func (p *Pager) forget(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cursors, key)
}
