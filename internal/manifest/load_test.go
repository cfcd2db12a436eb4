package manifest

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/wayfinder/internal/errors"
)

type fakeS3 struct {
	objects map[string]string
	calls   []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestLoadLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.yaml")
	if err := os.WriteFile(path, []byte("pages:\n  - path: /about\n    title: About\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(m.Pages) != 1 || m.Pages[0].Path != "/about" {
		t.Errorf("Pages = %+v, want one /about page", m.Pages)
	}

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if code := errors.Code(err); code != "M001" {
		t.Errorf("Load(missing) code = %q, want M001", code)
	}
}

func TestLoadS3(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"site/pages/main.json": `{"pages": [{"path": "/", "title": "Home"}]}`,
	}}
	l := &Loader{S3: fake}

	m, err := l.Load(context.Background(), "s3://site/pages/main.json")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(m.Pages) != 1 || m.Pages[0].Title != "Home" {
		t.Errorf("Pages = %+v, want one Home page", m.Pages)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "site/pages/main.json" {
		t.Errorf("GetObject calls = %v", fake.calls)
	}

	tests := []struct {
		source   string
		wantCode string
	}{
		{"s3://site/pages/missing.json", "M001"},
		{"s3://site/pages/main.xml", "M003"},
		{"s3://site", "M003"},
		{"s3:///key.json", "M003"},
	}
	for _, tt := range tests {
		_, err := l.Load(context.Background(), tt.source)
		if got := errors.Code(err); got != tt.wantCode {
			t.Errorf("Load(%q) code = %q, want %q", tt.source, got, tt.wantCode)
		}
	}
}

func TestLoadS3TooLarge(t *testing.T) {
	big := `{"pages": [], "x": "` + strings.Repeat("a", maxManifestSize) + `"}`
	l := &Loader{S3: &fakeS3{objects: map[string]string{"b/big.json": big}}}

	_, err := l.Load(context.Background(), "s3://b/big.json")
	if code := errors.Code(err); code != "M002" {
		t.Errorf("Load(big) code = %q, want M002", code)
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://assets/site/pages.toml")
	if err != nil {
		t.Fatalf("ParseS3URL error: %v", err)
	}
	if bucket != "assets" || key != "site/pages.toml" {
		t.Errorf("ParseS3URL = (%q, %q), want (assets, site/pages.toml)", bucket, key)
	}
	if _, _, err := ParseS3URL("/local/pages.json"); errors.Code(err) != "M003" {
		t.Errorf("ParseS3URL(local) error = %v, want M003", err)
	}
}

func TestS3ConfigFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("WAYFINDER_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("WAYFINDER_S3_PATH_STYLE", "true")
	t.Setenv("AWS_SESSION_TOKEN", "")

	cfg, err := S3ConfigFromEnv()
	if err != nil {
		t.Fatalf("S3ConfigFromEnv error: %v", err)
	}
	want := S3Config{
		Region:          "eu-west-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
	}
	if cfg != want {
		t.Errorf("S3ConfigFromEnv = %+v, want %+v", cfg, want)
	}

	client := NewS3Client(cfg)
	o := client.Options()
	if o.Region != "eu-west-1" || !o.UsePathStyle || aws.ToString(o.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("client options = region %q pathStyle %v endpoint %q", o.Region, o.UsePathStyle, aws.ToString(o.BaseEndpoint))
	}
	creds, err := o.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if creds.AccessKeyID != "AKID" {
		t.Errorf("AccessKeyID = %q, want AKID", creds.AccessKeyID)
	}
}
