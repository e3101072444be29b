package transcriber

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"murmur/log"
)

const DefaultModelURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin"

// FetchModel downloads url to dest unless dest already exists. The body is
// written to a temporary file in the destination directory and renamed into
// place once complete and, when wantSHA256 is set, verified.
func FetchModel(ctx context.Context, client *TracedClient, url, dest, wantSHA256 string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if url == "" {
		return fmt.Errorf("model %s is missing and no download URL is configured", dest)
	}
	if client == nil {
		client = NewTracedClient()
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".murmur-model-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tmp.Close()
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		tmp.Close()
		return fmt.Errorf("download model: %s", resp.Status)
	}

	log.Infof("model_download: url=%s size=%d", url, resp.ContentLength)
	hasher := sha256.New()
	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = &progressReader{r: resp.Body, total: resp.ContentLength}
	}
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), src); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	if wantSHA256 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, wantSHA256) {
			return fmt.Errorf("model checksum mismatch: got %s, want %s", got, wantSHA256)
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("install model: %w", err)
	}
	log.Infof("model_installed: %s", dest)
	return nil
}

// progressReader logs every tenth of the download.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	logged int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if step := p.read * 10 / p.total; step > p.logged {
		p.logged = step
		log.Infof("model_download: %d%% (%d / %d KB)", step*10, p.read/1024, p.total/1024)
	}
	return n, err
}
