package carbon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		apiURL: srv.URL,
		client: srv.Client(),
	}
}

func TestCurrent(t *testing.T) {
	t.Run("actual wins over forecast", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/intensity", r.URL.Path)
			w.Write([]byte(`{"data":[{
				"from":"2024-06-15T11:30Z",
				"to":"2024-06-15T12:00Z",
				"intensity":{"forecast":266,"actual":263,"index":"moderate"}
			}]}`))
		}))
		defer srv.Close()

		got, err := testClient(srv).Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 263, got.Intensity)
		assert.Equal(t, "moderate", got.Index)
		assert.Equal(t, time.Date(2024, 6, 15, 11, 30, 0, 0, time.UTC), got.From.UTC())
		assert.Equal(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), got.To.UTC())
	})

	t.Run("falls back to forecast", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[{
				"from":"2024-06-15T11:30Z",
				"to":"2024-06-15T12:00Z",
				"intensity":{"forecast":266,"actual":null,"index":"moderate"}
			}]}`))
		}))
		defer srv.Close()

		got, err := testClient(srv).Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 266, got.Intensity)
	})

	t.Run("missing readings and index", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[{
				"from":"2024-06-15T11:30Z",
				"to":"2024-06-15T12:00Z",
				"intensity":{"forecast":null,"actual":null,"index":""}
			}]}`))
		}))
		defer srv.Close()

		got, err := testClient(srv).Current(context.Background())
		require.NoError(t, err)
		assert.Zero(t, got.Intensity)
		assert.Equal(t, "unknown", got.Index)
	})

	t.Run("empty data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		_, err := testClient(srv).Current(context.Background())
		assert.ErrorContains(t, err, "no data")
	})

	t.Run("upstream error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := testClient(srv).Current(context.Background())
		assert.ErrorContains(t, err, "carbon api returned status: 500")
	})

	t.Run("bad json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := testClient(srv).Current(context.Background())
		assert.ErrorContains(t, err, "failed to decode")
	})
}

func TestForecast(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":[
			{"from":"2024-06-15T12:00Z","to":"2024-06-15T12:30Z","intensity":{"forecast":180,"actual":null,"index":"low"}},
			{"from":"2024-06-15T12:30Z","to":"2024-06-15T13:00Z","intensity":{"forecast":210,"actual":null,"index":"moderate"}}
		]}`))
	}))
	defer srv.Close()

	got, err := testClient(srv).Forecast(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 180, got[0].Intensity)
	assert.Equal(t, "low", got[0].Index)
	assert.Equal(t, 210, got[1].Intensity)

	// path carries the UTC range, minute resolution with a literal Z
	require.True(t, strings.HasPrefix(gotPath, "/intensity/"), gotPath)
	parts := strings.Split(strings.TrimPrefix(gotPath, "/intensity/"), "/")
	require.Len(t, parts, 2)
	from, err := time.Parse("2006-01-02T15:04Z", parts[0])
	require.NoError(t, err)
	to, err := time.Parse("2006-01-02T15:04Z", parts[1])
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, to.Sub(from))
	assert.WithinDuration(t, time.Now().UTC(), from, 2*time.Minute)
}

func TestRegional(t *testing.T) {
	regionalBody := `{"data":[{
		"shortname":"South England",
		"postcode":"SW1A",
		"data":[{"from":"2024-06-15T12:00Z","to":"2024-06-15T12:30Z","intensity":{"forecast":199,"index":"moderate"}}]
	}]}`

	t.Run("uses outward code", func(t *testing.T) {
		for input, outward := range map[string]string{
			"SW1A 1AA": "SW1A",
			"E1 8QS":   "E1",
			"RG101XY":  "RG10",
			"RG10":     "RG10",
		} {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(regionalBody))
			}))

			got, err := testClient(srv).Regional(context.Background(), input)
			srv.Close()
			require.NoError(t, err)
			assert.Equal(t, "/regional/postcode/"+outward, gotPath)
			assert.Equal(t, 199, got.Intensity)
			assert.Equal(t, "moderate", got.Index)
		}
	})

	t.Run("no data for postcode", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		_, err := testClient(srv).Regional(context.Background(), "SW1A 1AA")
		assert.ErrorContains(t, err, "no data for postcode: SW1A")
	})
}

func TestValidate(t *testing.T) {
	c := &Client{apiURL: "https://api.carbonintensity.org.uk"}
	assert.NoError(t, c.Validate())

	c = &Client{}
	assert.ErrorContains(t, c.Validate(), "carbon-api-url is required")
}
