package attachment

import (
	"context"
	"errors"
	"testing"

	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/feed"
)

type fakeBlobStore struct {
	uploads int
	err     error
}

func (f *fakeBlobStore) Upload(_ context.Context, name string, _ []byte) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return "https://blobs.local/uploads/" + name, nil
}

type recordingDocStore struct {
	appended []chat.Record
}

func (r *recordingDocStore) SubscribeOrdered(_, _ string, _ feed.SnapshotFunc) (func(), error) {
	return func() {}, nil
}

func (r *recordingDocStore) Append(_ context.Context, _ string, rec chat.Record) (string, error) {
	r.appended = append(r.appended, rec)
	return "m1", nil
}

func (r *recordingDocStore) UpdateField(context.Context, string, string, string, any) error {
	return nil
}

func TestAttachRejectsUnsupportedTypeBeforeUpload(t *testing.T) {
	blobs := &fakeBlobStore{}
	docs := &recordingDocStore{}
	p := NewPipeline(feed.NewChannel(docs, "shop1"), blobs, nil, nil)

	_, err := p.Attach(context.Background(), "notes.txt", "text/plain", []byte("hi"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
	if blobs.uploads != 0 {
		t.Errorf("upload called %d times for rejected type", blobs.uploads)
	}
	if len(docs.appended) != 0 {
		t.Errorf("%d messages created for rejected type", len(docs.appended))
	}
}

func TestAttachAppendsCustomerMessage(t *testing.T) {
	blobs := &fakeBlobStore{}
	docs := &recordingDocStore{}
	p := NewPipeline(feed.NewChannel(docs, "shop1"), blobs, nil, nil)

	url, err := p.Attach(context.Background(), "cat.png", "image/png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatal(err)
	}
	if blobs.uploads != 1 {
		t.Errorf("uploads = %d, want 1", blobs.uploads)
	}
	if len(docs.appended) != 1 {
		t.Fatalf("got %d messages, want 1", len(docs.appended))
	}
	msg := docs.appended[0]
	if msg.From != "user1" || msg.Content != url {
		t.Errorf("message = %+v, want customer message with content %q", msg, url)
	}
	if !chat.IsImageContent(msg.Content) {
		t.Errorf("content %q not sniffed as image", msg.Content)
	}
}

func TestAttachUploadFailureCreatesNoMessage(t *testing.T) {
	blobs := &fakeBlobStore{err: errors.New("bucket gone")}
	docs := &recordingDocStore{}
	p := NewPipeline(feed.NewChannel(docs, "shop1"), blobs, nil, nil)

	_, err := p.Attach(context.Background(), "cat.gif", "image/gif", nil)
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("error = %v, want ErrUploadFailed", err)
	}
	if len(docs.appended) != 0 {
		t.Errorf("%d messages created despite failed upload", len(docs.appended))
	}
}
