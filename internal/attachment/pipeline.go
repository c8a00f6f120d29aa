// Package attachment admits image uploads into the conversation feed.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/bus"
	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/feed"
)

var (
	// ErrUnsupportedType rejects a declared media type outside the accepted
	// image set before any collaborator call.
	ErrUnsupportedType = errors.New("attachment: unsupported media type")

	// ErrUploadFailed reports a failed blob upload. No message is created.
	ErrUploadFailed = errors.New("attachment: upload failed")
)

// acceptedTypes is the declared media types the widget accepts.
var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// Pipeline validates, uploads, and appends image attachments as customer
// messages.
type Pipeline struct {
	channel *feed.Channel
	blobs   feed.BlobStore
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewPipeline creates a pipeline for one conversation. bus and logger may
// be nil.
func NewPipeline(channel *feed.Channel, blobs feed.BlobStore, b *bus.Bus, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{channel: channel, blobs: blobs, bus: b, logger: logger}
}

// Attach uploads the file and appends one customer message whose content is
// the returned URL. An unsupported declared type fails before any
// collaborator call; a failed upload creates no message.
func (p *Pipeline) Attach(ctx context.Context, name, mediaType string, data []byte) (string, error) {
	if !acceptedTypes[mediaType] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mediaType)
	}

	url, err := p.blobs.Upload(ctx, name, data)
	if err != nil {
		p.logger.Error("upload failed", zap.String("name", name), zap.Error(err))
		p.publish(bus.KindAttachmentFailed, map[string]string{"name": name, "error": err.Error()})
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	id, err := p.channel.Append(ctx, chat.Record{
		Content: url,
		From:    string(chat.SenderCustomer),
	})
	if err != nil {
		p.logger.Error("attachment message append failed", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("append attachment message: %w", err)
	}

	p.publish(bus.KindAttachmentStored, map[string]string{"message_id": id, "url": url})
	return url, nil
}

func (p *Pipeline) publish(kind string, payload map[string]string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
