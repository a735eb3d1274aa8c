package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 keeps objects in memory keyed by "bucket/key".
type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = data
	f.contentTypes[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestParseS3URL(t *testing.T) {
	for _, tc := range []struct {
		in         string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://plans/mnist/p.vcl-plan", "plans", "mnist/p.vcl-plan", false},
		{"s3://plans/", "", "", true},
		{"s3:///key", "", "", true},
		{"file:///tmp/x", "", "", true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			bucket, key, err := ParseS3URL(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if bucket != tc.wantBucket || key != tc.wantKey {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, key, tc.wantBucket, tc.wantKey)
			}
		})
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := FileStore{Dir: t.TempDir()}

	if err := fs.Save(ctx, "out/snap.json", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := ReadAll(ctx, fs, "out/snap.json")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("got %q", got)
	}

	abs := filepath.Join(fs.Dir, "out", "snap.json")
	if _, err := ReadAll(ctx, FileStore{Dir: "/elsewhere"}, abs); err != nil {
		t.Errorf("absolute path not honoured: %v", err)
	}
	if _, err := fs.Open(ctx, "missing.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := &S3Store{client: fake}

	if err := store.Save(ctx, "s3://runs/r1/results.jsonl", []byte("{}\n")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ct := fake.contentTypes["runs/r1/results.jsonl"]; ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}

	got, err := ReadAll(ctx, store, "s3://runs/r1/results.jsonl")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "{}\n" {
		t.Errorf("got %q", got)
	}

	if _, err := store.Open(ctx, "s3://runs/missing"); err == nil {
		t.Error("expected error for missing object")
	}
	if _, err := store.Open(ctx, "/local/path"); err == nil {
		t.Error("expected error for non-s3 location")
	}
}

func TestMux(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.objects["plans/p.json"] = []byte("remote")

	dir := t.TempDir()
	built := 0
	m := &Mux{
		Files: FileStore{Dir: dir},
		NewS3: func(context.Context) (Store, error) {
			built++
			return &S3Store{client: fake}, nil
		},
	}

	if err := m.Save(ctx, "local.txt", []byte("local")); err != nil {
		t.Fatalf("Save local: %v", err)
	}
	if got, _ := ReadAll(ctx, m, "local.txt"); string(got) != "local" {
		t.Errorf("local = %q", got)
	}
	if built != 0 {
		t.Error("S3 store built for a local location")
	}

	for i := 0; i < 2; i++ {
		got, err := ReadAll(ctx, m, "s3://plans/p.json")
		if err != nil {
			t.Fatalf("ReadAll s3: %v", err)
		}
		if string(got) != "remote" {
			t.Errorf("remote = %q", got)
		}
	}
	if built != 1 {
		t.Errorf("S3 store built %d times, want 1", built)
	}
}

func TestMux_S3NotConfigured(t *testing.T) {
	m := &Mux{}
	if _, err := m.Open(context.Background(), "s3://b/k"); err == nil {
		t.Error("expected error without an S3 factory")
	}
}
