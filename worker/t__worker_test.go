package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/persist"
)

var (
	pngBytes = append([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}, []byte("worker test image")...)
	mp4Bytes = []byte{0x00, 0x00, 0x00, 0x10, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00}
)

// memRepo mimics the conflict-ignoring inserts of the real repository: the
// first row for a natural key wins, later inserts for the same key succeed
// without changing anything.
type memRepo struct {
	metadataRows map[string]persist.NftMetadata
	mediaRows    map[string]persist.NftMedia

	metadataAttempts int
	mediaAttempts    int

	metadataErr error
	mediaErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		metadataRows: map[string]persist.NftMetadata{},
		mediaRows:    map[string]persist.NftMedia{},
	}
}

func (r *memRepo) InsertMetadata(ctx context.Context, metadata persist.NftMetadata) error {
	r.metadataAttempts++
	if r.metadataErr != nil {
		return r.metadataErr
	}

	key := fmt.Sprintf("%s|%s|%s", metadata.ContractAddress, metadata.TokenID, metadata.Chain)
	if _, ok := r.metadataRows[key]; ok {
		return nil
	}
	r.metadataRows[key] = metadata
	return nil
}

func (r *memRepo) InsertMedia(ctx context.Context, media persist.NftMedia) error {
	r.mediaAttempts++
	if r.mediaErr != nil {
		return r.mediaErr
	}

	key := fmt.Sprintf("%s|%s|%s", media.ContractAddress, media.TokenID, media.MediaType)
	if _, ok := r.mediaRows[key]; ok {
		return nil
	}
	r.mediaRows[key] = media
	return nil
}

func (r *memRepo) GetNftsWithImages(ctx context.Context, limit int) ([]persist.NftWithImage, error) {
	return nil, nil
}

func (r *memRepo) GetNftByIdentifiers(ctx context.Context, contractAddress persist.Address, tokenID persist.TokenID, chain persist.Chain) (persist.NftDetails, error) {
	return persist.NftDetails{}, persist.ErrNftNotFound{ContractAddress: contractAddress, TokenID: tokenID, Chain: chain}
}

type stubUploader struct {
	keys         []string
	contentTypes []string
}

func (u *stubUploader) Upload(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	u.keys = append(u.keys, key)
	u.contentTypes = append(u.contentTypes, contentType)
	return "https://worker-bucket.s3.amazonaws.com/" + key, nil
}

func (u *stubUploader) Backend() persist.StorageBackend {
	return persist.StorageBackendS3
}

type pollResult struct {
	job *mintjobs.MintJob
	err error
}

// scriptedConsumer plays back a fixed poll sequence, then cancels the run
// context so the loop under test can exit.
type scriptedConsumer struct {
	script []pollResult
	done   context.CancelFunc
}

func (c *scriptedConsumer) Poll(timeout time.Duration) (*mintjobs.MintJob, error) {
	if len(c.script) == 0 {
		c.done()
		return nil, nil
	}

	next := c.script[0]
	c.script = c.script[1:]
	return next.job, next.err
}

func newMetadataServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/meta/full.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name":"Kudzu Field","description":"a creeping vine","image":%q,"animation_url":%q,"attributes":[{"trait_type":"Vibe","value":"creepy"}]}`,
			srv.URL+"/img.png", srv.URL+"/anim.mp4")
	})
	mux.HandleFunc("/meta/numeric-name.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name":42,"image":%q}`, srv.URL+"/img.png")
	})
	mux.HandleFunc("/meta/broken-image.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"image":%q,"animation_url":%q}`, srv.URL+"/img-missing.png", srv.URL+"/anim.mp4")
	})
	mux.HandleFunc("/meta/no-media.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Quiet Piece","description":"text only"}`)
	})
	mux.HandleFunc("/meta/broken.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not json")
	})
	mux.HandleFunc("/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	})
	mux.HandleFunc("/anim.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write(mp4Bytes)
	})

	return srv
}

func newTestWorker(consumer Consumer, repo persist.NftRepository, uploader *stubUploader) *Worker {
	w := &Worker{
		consumer:   consumer,
		nftRepo:    repo,
		httpClient: http.DefaultClient,
	}
	if uploader != nil {
		w.uploader = uploader
	}
	return w
}

func jobForURI(uri string) mintjobs.MintJob {
	return mintjobs.MintJob{
		ContractAddress: "0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5",
		TokenID:         "1",
		Chain:           persist.ChainEthereum,
		MetadataURI:     &uri,
	}
}

func mediaKeyFor(url, ext string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + "." + ext
}

func TestProcessJob(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests metadata and mirrors both media fields", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		uploader := &stubUploader{}
		worker := newTestWorker(nil, repo, uploader)

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/full.json"))

		a.Len(repo.metadataRows, 1)
		row := repo.metadataRows["0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5|1|ethereum"]
		a.Equal("Kudzu Field", *row.Name)
		a.Equal("a creeping vine", *row.Description)
		a.True(row.Attributes.Valid)
		a.Equal([]interface{}{map[string]interface{}{"trait_type": "Vibe", "value": "creepy"}}, row.Attributes.V)
		a.True(row.RawMetadata.Valid)

		a.Len(repo.mediaRows, 2)
		imageRow := repo.mediaRows["0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5|1|image"]
		a.Equal(srv.URL+"/img.png", imageRow.OriginalURL)
		a.Equal("https://worker-bucket.s3.amazonaws.com/"+mediaKeyFor(srv.URL+"/img.png", "png"), imageRow.CachedURL)
		a.Equal(persist.StorageBackendS3, imageRow.StorageBackend)

		animationRow := repo.mediaRows["0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5|1|animation"]
		a.Equal(srv.URL+"/anim.mp4", animationRow.OriginalURL)
		a.Equal("https://worker-bucket.s3.amazonaws.com/"+mediaKeyFor(srv.URL+"/anim.mp4", "mp4"), animationRow.CachedURL)

		a.Equal([]string{"image/png", "video/mp4"}, uploader.contentTypes)
	})

	t.Run("a redelivered job changes nothing", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		job := jobForURI(srv.URL + "/meta/full.json")
		worker.processJob(ctx, job)
		worker.processJob(ctx, job)

		a.Equal(2, repo.metadataAttempts)
		a.Len(repo.metadataRows, 1)
		a.Len(repo.mediaRows, 2)
	})

	t.Run("a job without a URI writes nothing", func(t *testing.T) {
		a := assert.New(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, mintjobs.MintJob{
			ContractAddress: "0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5",
			TokenID:         "1",
			Chain:           persist.ChainEthereum,
		})

		a.Zero(repo.metadataAttempts)
		a.Zero(repo.mediaAttempts)
	})

	t.Run("a missing metadata document writes nothing", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/does-not-exist.json"))

		a.Zero(repo.metadataAttempts)
		a.Zero(repo.mediaAttempts)
	})

	t.Run("an undecodable metadata document writes nothing", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/broken.json"))

		a.Zero(repo.metadataAttempts)
	})

	t.Run("a non-string name is dropped but the raw document survives", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/numeric-name.json"))

		a.Len(repo.metadataRows, 1)
		row := repo.metadataRows["0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5|1|ethereum"]
		a.Nil(row.Name)
		raw, ok := row.RawMetadata.V.(persist.TokenMetadata)
		a.True(ok)
		a.Equal("42", fmt.Sprint(raw["name"]))

		a.Len(repo.mediaRows, 1)
	})

	t.Run("a metadata insert failure does not stop media mirroring", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		repo.metadataErr = errors.New("connection refused")
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/full.json"))

		a.Empty(repo.metadataRows)
		a.Len(repo.mediaRows, 2)
	})

	t.Run("a failed image fetch does not stop the animation mirror", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/broken-image.json"))

		a.Len(repo.metadataRows, 1)
		a.Len(repo.mediaRows, 1)
		_, hasAnimation := repo.mediaRows["0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5|1|animation"]
		a.True(hasAnimation)
	})

	t.Run("metadata without media fields yields no media rows", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, &stubUploader{})

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/no-media.json"))

		a.Len(repo.metadataRows, 1)
		a.Zero(repo.mediaAttempts)
	})

	t.Run("without a storage backend metadata is still ingested", func(t *testing.T) {
		a := assert.New(t)
		srv := newMetadataServer(t)
		repo := newMemRepo()
		worker := newTestWorker(nil, repo, nil)

		worker.processJob(ctx, jobForURI(srv.URL+"/meta/full.json"))

		a.Len(repo.metadataRows, 1)
		a.Zero(repo.mediaAttempts)
	})
}

func TestRun(t *testing.T) {
	a := assert.New(t)
	srv := newMetadataServer(t)
	repo := newMemRepo()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := jobForURI(srv.URL + "/meta/full.json")
	consumer := &scriptedConsumer{
		done: cancel,
		script: []pollResult{
			{err: mintjobs.ErrInvalidJob{Key: []byte("0xabc"), Value: []byte("{"), Err: errors.New("unexpected end of JSON input")}},
			{err: errors.New("broker unreachable")},
			{},
			{job: &job},
		},
	}

	worker := newTestWorker(consumer, repo, &stubUploader{})

	finished := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not exit after its context was canceled")
	}

	a.Len(repo.metadataRows, 1)
	a.Len(repo.mediaRows, 2)
}
