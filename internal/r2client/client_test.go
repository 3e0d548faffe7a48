package r2client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestNew_RequiresConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"missing bucket", Config{Endpoint: EndpointFor("acc"), AccessKeyID: "id", SecretKey: "secret"}},
		{"missing secret", Config{Endpoint: EndpointFor("acc"), AccessKeyID: "id", BucketName: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(context.Background(), tt.cfg); err == nil {
				t.Error("Expected error for incomplete config")
			}
		})
	}
}

func TestNew_Valid(t *testing.T) {
	t.Parallel()
	c, err := New(context.Background(), Config{
		Endpoint:    EndpointFor("acc"),
		AccessKeyID: "id",
		SecretKey:   "secret",
		BucketName:  "schedules",
		PublicURL:   "https://img.example.test/",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := c.ObjectURL("/pages/a.png"); got != "https://img.example.test/pages/a.png" {
		t.Errorf("ObjectURL() = %q", got)
	}
}

func TestEndpointFor(t *testing.T) {
	t.Parallel()
	if got := EndpointFor("abc123"); got != "https://abc123.r2.cloudflarestorage.com" {
		t.Errorf("EndpointFor() = %q", got)
	}
}

func TestObjectURL_NoPublicURL(t *testing.T) {
	t.Parallel()
	c := &Client{}
	if got := c.ObjectURL("a.png"); got != "" {
		t.Errorf("ObjectURL() = %q, want empty", got)
	}
}

func TestTrimETag(t *testing.T) {
	t.Parallel()
	if got := trimETag(aws.String(`"abc"`)); got != "abc" {
		t.Errorf("trimETag() = %q", got)
	}
	if got := trimETag(nil); got != "" {
		t.Errorf("trimETag(nil) = %q", got)
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		err          error
		notFound     bool
		precondition bool
	}{
		{"no such key", fmt.Errorf("get: %w", &types.NoSuchKey{}), true, false},
		{"api 404", &smithy.GenericAPIError{Code: "NotFound"}, true, false},
		{"precondition", &smithy.GenericAPIError{Code: "PreconditionFailed"}, false, true},
		{"other", errors.New("connection reset"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isNotFound(tt.err); got != tt.notFound {
				t.Errorf("isNotFound() = %v, want %v", got, tt.notFound)
			}
			if got := isPreconditionFailed(tt.err); got != tt.precondition {
				t.Errorf("isPreconditionFailed() = %v, want %v", got, tt.precondition)
			}
		})
	}
}
