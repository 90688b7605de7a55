package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kyoden/utagoe/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func completionBody(content string) string {
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

func newTestParser(t *testing.T, handler http.HandlerFunc) (*OpenAIParser, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenAIParser("test-key",
		WithBaseURL(srv.URL),
		WithMaxRetries(1),
	)
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	return p, srv
}

func TestParseSongInfo(t *testing.T) {
	Convey("Given a model that answers clean JSON", t, func() {
		var gotAuth string
		var gotReq chatRequest
		p, _ := newTestParser(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			_, _ = w.Write([]byte(completionBody(`{"song_name": "粉雪", "artist_name": "レミオロメン"}`)))
		})

		Convey("When OCR text is parsed", func() {
			info, err := p.ParseSongInfo(context.Background(), "粉雪 レミオロメン 92.170 点")

			Convey("Then both fields are extracted", func() {
				So(err, ShouldBeNil)
				So(info.SongName, ShouldNotBeNil)
				So(*info.SongName, ShouldEqual, "粉雪")
				So(info.ArtistName, ShouldNotBeNil)
				So(*info.ArtistName, ShouldEqual, "レミオロメン")
			})

			Convey("And the request carries the key, model and OCR text", func() {
				So(gotAuth, ShouldEqual, "Bearer test-key")
				So(gotReq.Model, ShouldEqual, defaultModel)
				So(len(gotReq.Messages), ShouldEqual, 1)
				So(gotReq.Messages[0].Content, ShouldContainSubstring, "粉雪 レミオロメン")
				So(gotReq.Temperature, ShouldEqual, 0.2)
			})
		})
	})

	Convey("Given a model that wraps its answer in a code fence", t, func() {
		p, _ := newTestParser(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(completionBody("```json\n{\"song_name\": \"天体観測\", \"artist_name\": null}\n```")))
		})

		Convey("When OCR text is parsed", func() {
			info, err := p.ParseSongInfo(context.Background(), "some ocr text")

			Convey("Then the fence is stripped and nulls stay nil", func() {
				So(err, ShouldBeNil)
				So(info.SongName, ShouldNotBeNil)
				So(*info.SongName, ShouldEqual, "天体観測")
				So(info.ArtistName, ShouldBeNil)
			})
		})
	})

	Convey("Given an endpoint that fails once then recovers", t, func() {
		calls := 0
		p, _ := newTestParser(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(completionBody(`{"song_name": null, "artist_name": "Aimer"}`)))
		})

		Convey("When OCR text is parsed", func() {
			info, err := p.ParseSongInfo(context.Background(), "text")

			Convey("Then the retry succeeds", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 2)
				So(info.ArtistName, ShouldNotBeNil)
				So(*info.ArtistName, ShouldEqual, "Aimer")
			})
		})
	})

	Convey("Given an endpoint that rejects the request outright", t, func() {
		calls := 0
		p, _ := newTestParser(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
		})

		Convey("When OCR text is parsed", func() {
			_, err := p.ParseSongInfo(context.Background(), "text")

			Convey("Then the failure is returned without retrying", func() {
				So(err, ShouldNotBeNil)
				So(calls, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a model that answers something other than JSON", t, func() {
		p, _ := newTestParser(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(completionBody("すみません、わかりません")))
		})

		Convey("When OCR text is parsed", func() {
			_, err := p.ParseSongInfo(context.Background(), "text")

			Convey("Then a decode error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestStripFences(t *testing.T) {
	Convey("Given fenced and bare answers", t, func() {
		So(stripFences("{\"a\":1}"), ShouldEqual, `{"a":1}`)
		So(stripFences("```json\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		So(stripFences("```\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		So(stripFences("  {\"a\":1}  "), ShouldEqual, `{"a":1}`)
	})
}
