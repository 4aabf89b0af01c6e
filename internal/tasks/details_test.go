package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mfx/internal/models"
	tu "github.com/desertthunder/mfx/internal/testing"
)

func TestBuildManifestLink(t *testing.T) {
	tests := []struct {
		name   string
		webURL string
		want   string
	}{
		{name: "adds scheme and separator", webURL: "example.com", want: "https://example.com/U"},
		{name: "keeps scheme and separator", webURL: "https://example.com/", want: "https://example.com/U"},
		{name: "keeps http scheme", webURL: "http://portal.example.com/consumers", want: "http://portal.example.com/consumers/U"},
		{name: "adds separator only", webURL: "https://example.com", want: "https://example.com/U"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildManifestLink(models.Upstream{WebURL: tt.webURL, UUID: "U"})
			if got != tt.want {
				t.Errorf("BuildManifestLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func upstreamOrg(up *models.Upstream) *models.Organization {
	return &models.Organization{ID: 1, Name: "ACME", OwnerDetails: models.OwnerDetails{UpstreamConsumer: up}}
}

func TestDeriveDetails(t *testing.T) {
	t.Run("Without Upstream", func(t *testing.T) {
		details := DeriveDetails(upstreamOrg(nil))
		if details.HasManifest() || details.Link != "" || details.Name != "" {
			t.Errorf("expected empty details, got %+v", details)
		}
	})

	t.Run("With Upstream", func(t *testing.T) {
		details := DeriveDetails(upstreamOrg(&models.Upstream{UUID: "U", Name: "sat", WebURL: "example.com"}))
		if details.Link != "https://example.com/U" || details.Name != "sat" {
			t.Errorf("unexpected details %+v", details)
		}
	})

	t.Run("Name Falls Back To UUID", func(t *testing.T) {
		details := DeriveDetails(upstreamOrg(&models.Upstream{UUID: "U"}))
		if details.Name != "U" || details.Link != "" {
			t.Errorf("unexpected details %+v", details)
		}
	})
}

func TestRefreshDisabled(t *testing.T) {
	withCert := &models.Upstream{UUID: "U", IDCert: &models.IDCert{Cert: "PEM"}}

	tests := []struct {
		name         string
		pending      bool
		upstream     *models.Upstream
		disconnected bool
		want         bool
	}{
		{name: "enabled", upstream: withCert},
		{name: "pending task", pending: true, upstream: withCert, want: true},
		{name: "no upstream", want: true},
		{name: "no id cert", upstream: &models.Upstream{UUID: "U"}, want: true},
		{name: "empty cert", upstream: &models.Upstream{UUID: "U", IDCert: &models.IDCert{}}, want: true},
		{name: "disconnected", upstream: withCert, disconnected: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := DeriveDetails(upstreamOrg(tt.upstream))
			got, reason := RefreshDisabled(tt.pending, details, tt.disconnected)
			if got != tt.want {
				t.Errorf("RefreshDisabled() = %v (%s), want %v", got, reason, tt.want)
			}
			if got && reason == "" {
				t.Error("expected a reason when disabled")
			}
		})
	}
}

func historyOf(n int) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, n)
	for i := range entries {
		entries[i] = models.HistoryEntry{ID: fmt.Sprint(i), Status: "success"}
	}
	return entries
}

func TestHistoryFeed(t *testing.T) {
	t.Run("Truncates Long History", func(t *testing.T) {
		feed := NewHistoryFeed(4)
		feed.Replace(historyOf(7))

		if len(feed.Displayed()) != 4 || !feed.HasMore() || len(feed.All()) != 7 {
			t.Errorf("expected 4 of 7 with more, got %d of %d (%v)", len(feed.Displayed()), len(feed.All()), feed.HasMore())
		}
	})

	t.Run("Short History", func(t *testing.T) {
		feed := NewHistoryFeed(4)
		feed.Replace(historyOf(3))

		if len(feed.Displayed()) != 3 || feed.HasMore() {
			t.Errorf("expected 3 without more, got %d (%v)", len(feed.Displayed()), feed.HasMore())
		}
	})

	t.Run("Default Limit", func(t *testing.T) {
		if NewHistoryFeed(0).Limit() != DefaultHistoryLimit {
			t.Error("expected default limit")
		}
	})

	t.Run("Pure Helpers", func(t *testing.T) {
		all := historyOf(5)
		if got := Truncate(all, 4); len(got) != 4 || !IsTruncated(got, all) {
			t.Errorf("unexpected truncation %d", len(got))
		}
		if got := Truncate(all, 10); len(got) != 5 || IsTruncated(got, all) {
			t.Errorf("unexpected truncation %d", len(got))
		}
		if got := Truncate(nil, 4); len(got) != 0 {
			t.Errorf("expected empty result, got %d", len(got))
		}
	})
}

type fakeProviders struct {
	org        *models.Organization
	history    []models.HistoryEntry
	orgErr     error
	historyErr error
	orgCalls   int
}

func (p *fakeProviders) GetOrganization(ctx context.Context, id int) (*models.Organization, error) {
	p.orgCalls++
	return p.org, p.orgErr
}

func (p *fakeProviders) ManifestHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	return p.history, p.historyErr
}

func TestManifestState(t *testing.T) {
	t.Run("Refresh", func(t *testing.T) {
		providers := &fakeProviders{
			org:     upstreamOrg(&models.Upstream{UUID: "U", Name: "sat", WebURL: "example.com"}),
			history: historyOf(6),
		}
		state := NewManifestState(providers, providers, 1, NewHistoryFeed(4))

		if err := state.Refresh(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if state.Details().Link != "https://example.com/U" {
			t.Errorf("unexpected link %q", state.Details().Link)
		}
		displayed, more := state.History()
		if len(displayed) != 4 || !more {
			t.Errorf("expected 4 displayed with more, got %d (%v)", len(displayed), more)
		}
	})

	t.Run("RefreshHistory Skips Organization", func(t *testing.T) {
		providers := &fakeProviders{history: historyOf(2)}
		state := NewManifestState(providers, providers, 1, nil)

		if err := state.RefreshHistory(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if providers.orgCalls != 0 {
			t.Error("expected organization to not be fetched")
		}
		if len(state.Feed().All()) != 2 {
			t.Errorf("expected 2 entries, got %d", len(state.Feed().All()))
		}
	})

	t.Run("Nil Feed Uses Default Limit", func(t *testing.T) {
		providers := &fakeProviders{}
		state := NewManifestState(providers, providers, 1, nil)
		if state.Feed().Limit() != DefaultHistoryLimit {
			t.Errorf("expected limit %d, got %d", DefaultHistoryLimit, state.Feed().Limit())
		}
	})

	t.Run("Errors", func(t *testing.T) {
		providers := &fakeProviders{orgErr: errors.New("down")}
		state := NewManifestState(providers, providers, 1, nil)
		if err := state.Refresh(context.Background()); err == nil {
			t.Error("expected organization error")
		}

		providers = &fakeProviders{historyErr: errors.New("down")}
		state = NewManifestState(providers, providers, 1, nil)
		if err := state.RefreshHistory(context.Background()); err == nil {
			t.Error("expected history error")
		}
	})
}

func TestNotifiers(t *testing.T) {
	t.Run("ChannelNotifier", func(t *testing.T) {
		ch := make(chan Notification, 2)
		n := NewChannelNotifier(ch)
		n.NotifySuccess("ok")
		n.NotifyError("bad")

		if got := <-ch; got.Level != LevelSuccess || got.Message != "ok" {
			t.Errorf("unexpected notification %+v", got)
		}
		if got := <-ch; got.Level != LevelError || got.Message != "bad" {
			t.Errorf("unexpected notification %+v", got)
		}
	})

	t.Run("MultiNotifier", func(t *testing.T) {
		a, b := &tu.RecordingNotifier{}, &tu.RecordingNotifier{}
		MultiNotifier{a, b}.NotifyError("bad")

		if a.LastError() != "bad" || b.LastError() != "bad" {
			t.Error("expected every notifier to receive the message")
		}
	})

	t.Run("LogNotifier", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogNotifier(log.New(&buf)).NotifyError("Error refreshing manifest.")

		if !bytes.Contains(buf.Bytes(), []byte("Error refreshing manifest.")) {
			t.Errorf("expected message in log output, got %q", buf.String())
		}
	})

	t.Run("NotifierFunc", func(t *testing.T) {
		var got []Notification
		f := NotifierFunc(func(n Notification) { got = append(got, n) })
		f.NotifySuccess("ok")

		if len(got) != 1 || got[0].Level != LevelSuccess {
			t.Errorf("unexpected notifications %+v", got)
		}
	})
}
