package imagemeta_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// envelope builds the nested wire form: a notification whose Message field
// carries the store event document as a JSON string.
func envelope(t *testing.T, records ...map[string]interface{}) []byte {
	t.Helper()

	inner, err := json.Marshal(map[string]interface{}{"Records": records})
	require.NoError(t, err)

	outer, err := json.Marshal(map[string]interface{}{
		"Type":    "Notification",
		"Message": string(inner),
	})
	require.NoError(t, err)
	return outer
}

func storeRecord(eventName, bucket, key string) map[string]interface{} {
	return map[string]interface{}{
		"eventSource": "aws:s3",
		"eventName":   eventName,
		"s3": map[string]interface{}{
			"bucket": map[string]interface{}{"name": bucket},
			"object": map[string]interface{}{"key": key, "size": 1024},
		},
	}
}

func TestNormalizeMessage(t *testing.T) {
	t.Run("unwraps both layers", func(t *testing.T) {
		body := envelope(t, storeRecord("ObjectCreated:Put", "images", "sunset.png"))

		records, err := imagemeta.NormalizeMessage(body)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "images", records[0].Bucket)
		assert.Equal(t, "sunset.png", records[0].Key)
		assert.Equal(t, "ObjectCreated:Put", records[0].EventName)
	})

	t.Run("preserves record order", func(t *testing.T) {
		var want []map[string]interface{}
		for i := 0; i < 5; i++ {
			want = append(want, storeRecord("ObjectCreated:Put", "images", fmt.Sprintf("img-%d.png", i)))
		}

		records, err := imagemeta.NormalizeMessage(envelope(t, want...))
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i, rec := range records {
			assert.Equal(t, fmt.Sprintf("img-%d.png", i), rec.Key)
		}
	})

	t.Run("malformed outer envelope", func(t *testing.T) {
		_, err := imagemeta.NormalizeMessage([]byte("not json"))
		assert.ErrorIs(t, err, imagemeta.ErrMalformedEvent)
	})

	t.Run("malformed inner payload", func(t *testing.T) {
		outer, err := json.Marshal(map[string]interface{}{
			"Type":    "Notification",
			"Message": "{{broken",
		})
		require.NoError(t, err)

		_, err = imagemeta.NormalizeMessage(outer)
		assert.ErrorIs(t, err, imagemeta.ErrMalformedEvent)
	})

	t.Run("missing inner message", func(t *testing.T) {
		_, err := imagemeta.NormalizeMessage([]byte(`{"Type":"Notification"}`))
		assert.ErrorIs(t, err, imagemeta.ErrMalformedEvent)
	})

	t.Run("payload without records yields empty slice", func(t *testing.T) {
		outer, err := json.Marshal(map[string]interface{}{
			"Type":    "Notification",
			"Message": `{"Service":"Amazon S3","Event":"s3:TestEvent"}`,
		})
		require.NoError(t, err)

		records, err := imagemeta.NormalizeMessage(outer)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"record not found is absorbed", imagemeta.ErrRecordNotFound, false},
		{"wrapped record not found is absorbed", fmt.Errorf("update: %w", imagemeta.ErrRecordNotFound), false},
		{"malformed event retries", imagemeta.ErrMalformedEvent, true},
		{"invalid file type retries", imagemeta.ErrInvalidFileType, true},
		{"fetch failure retries", imagemeta.ErrFetchFailed, true},
		{"dispatch failure retries", imagemeta.ErrDispatchFailed, true},
		{"unknown error retries", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imagemeta.Retryable(tt.err))
		})
	}
}
