package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/artverse/ingest/service/logger"
	"github.com/artverse/ingest/service/media"
	"github.com/artverse/ingest/service/metadata"
	"github.com/artverse/ingest/service/mintjobs"
	"github.com/artverse/ingest/service/persist"
	"github.com/artverse/ingest/service/sentryutil"
	"github.com/artverse/ingest/util"
)

const pollTimeout = time.Second

// Consumer is the slice of the job bus the worker needs
type Consumer interface {
	Poll(timeout time.Duration) (*mintjobs.MintJob, error)
}

// Worker consumes mint jobs one at a time and ingests each token's metadata
// and media. Jobs are redelivered on failure upstream, and every write is
// idempotent, so the pipeline never has to halt on a bad job.
type Worker struct {
	consumer   Consumer
	nftRepo    persist.NftRepository
	uploader   media.Uploader
	httpClient *http.Client
}

// NewWorker wires the consumer to the ingest pipeline. The uploader may be nil,
// which turns media mirroring into a per-job configuration error instead of a
// boot failure.
func NewWorker(consumer Consumer, nftRepo persist.NftRepository, uploader media.Uploader) *Worker {
	return &Worker{
		consumer:   consumer,
		nftRepo:    nftRepo,
		uploader:   uploader,
		httpClient: &http.Client{},
	}
}

// Run consumes jobs until the context ends. Nothing inside the loop is fatal;
// every failure is logged and the loop moves on.
func (w *Worker) Run(ctx context.Context) {
	logger.For(ctx).Info("worker consuming mint jobs")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.consumer.Poll(pollTimeout)
		if err != nil {
			if invalid, ok := util.ErrorAs[mintjobs.ErrInvalidJob](err); ok {
				logger.For(ctx).WithError(invalid).Error("skipping undecodable mint job")
				continue
			}

			logger.For(ctx).WithError(err).Error("failed to consume mint job")
			sentryutil.ReportError(ctx, err)
			continue
		}
		if job == nil {
			continue
		}

		w.processJob(ctx, *job)
	}
}

// processJob runs one job through fetch, normalize, persist and mirror. Later
// stages still run when an earlier one fails where that can produce useful rows;
// a metadata row without media, or media without metadata, is legitimate.
func (w *Worker) processJob(pCtx context.Context, pJob mintjobs.MintJob) {
	ctx := logger.NewContextWithFields(pCtx, logrus.Fields{
		"contractAddress": pJob.ContractAddress,
		"tokenID":         pJob.TokenID,
	})

	logger.For(ctx).Info("received mint job")

	if pJob.MetadataURI == nil {
		logger.For(ctx).Error("job carries no metadata URI, nothing to ingest")
		return
	}

	tokenMetadata, err := metadata.FetchMetadata(ctx, *pJob.MetadataURI, w.httpClient)
	if err != nil {
		logger.For(ctx).WithError(err).Error("failed to fetch metadata")
		return
	}

	normalized := metadata.Normalize(tokenMetadata)

	if err := w.nftRepo.InsertMetadata(ctx, persist.NftMetadata{
		ContractAddress: pJob.ContractAddress,
		TokenID:         pJob.TokenID,
		Chain:           pJob.Chain,
		Name:            normalized.Name,
		Description:     normalized.Description,
		Attributes:      normalized.Attributes,
		RawMetadata:     persist.JSONBFrom(tokenMetadata),
	}); err != nil {
		logger.For(ctx).WithError(err).Error("failed to persist metadata")
		sentryutil.ReportError(ctx, err)
	} else {
		logger.For(ctx).Info("ingested metadata")
	}

	w.mirrorMedia(ctx, pJob, persist.MediaTypeImage, normalized.ImageURL)
	w.mirrorMedia(ctx, pJob, persist.MediaTypeAnimation, normalized.AnimationURL)
}

func (w *Worker) mirrorMedia(pCtx context.Context, pJob mintjobs.MintJob, mediaType persist.MediaType, url *string) {
	if url == nil {
		return
	}

	cachedURL, err := media.FetchAndCache(pCtx, *url, w.uploader, w.httpClient)
	if err != nil {
		logger.For(pCtx).WithError(err).Errorf("failed to mirror %s media", mediaType)
		return
	}

	if err := w.nftRepo.InsertMedia(pCtx, persist.NftMedia{
		ContractAddress: pJob.ContractAddress,
		TokenID:         pJob.TokenID,
		MediaType:       mediaType,
		OriginalURL:     *url,
		CachedURL:       cachedURL,
		StorageBackend:  w.uploader.Backend(),
	}); err != nil {
		logger.For(pCtx).WithError(err).Errorf("failed to persist %s media row", mediaType)
		sentryutil.ReportError(pCtx, err)
		return
	}

	logger.For(pCtx).Infof("mirrored %s media to %s", mediaType, cachedURL)
}
