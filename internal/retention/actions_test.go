// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package retention

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/netSkope/spo-retention-tool/internal/config"
	"github.com/netSkope/spo-retention-tool/internal/console"
	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type trimJob struct {
	siteURL   string
	mode      sharepoint.TrimJobMode
	threshold int
}

type fakeAdmin struct {
	sites       []sharepoint.SiteInfo
	tenantTrims []bool
	siteTrims   []string
	jobs        []trimJob
	failFor     map[string]error // siteURL -> forced error
}

func (f *fakeAdmin) ListSites(ctx context.Context) ([]sharepoint.SiteInfo, error) {
	return f.sites, nil
}

func (f *fakeAdmin) SetTenantAutoTrim(ctx context.Context, enabled bool) error {
	f.tenantTrims = append(f.tenantTrims, enabled)
	return nil
}

func (f *fakeAdmin) SetSiteAutoTrim(ctx context.Context, siteURL string, enabled bool) error {
	if err := f.failFor[siteURL]; err != nil {
		return err
	}
	f.siteTrims = append(f.siteTrims, siteURL)
	return nil
}

func (f *fakeAdmin) CreateVersionTrimJob(ctx context.Context, siteURL string, mode sharepoint.TrimJobMode, threshold int) error {
	if err := f.failFor[siteURL]; err != nil {
		return err
	}
	f.jobs = append(f.jobs, trimJob{siteURL: siteURL, mode: mode, threshold: threshold})
	return nil
}

type fakeContentStore struct {
	items   map[string][]sharepoint.Item // siteURL -> items
	content map[string]string            // serverRelativeURL -> body
}

func (f *fakeContentStore) ListPreservationItems(ctx context.Context, siteURL string, pageSize int) ([]sharepoint.Item, error) {
	items, ok := f.items[siteURL]
	if !ok {
		return nil, &sharepoint.NotFoundError{Resource: siteURL}
	}
	return items, nil
}

func (f *fakeContentStore) DownloadFile(ctx context.Context, siteURL, serverRelativeURL string) (io.ReadCloser, error) {
	body, ok := f.content[serverRelativeURL]
	if !ok {
		return nil, &sharepoint.NotFoundError{Resource: serverRelativeURL}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

const (
	siteProjects = "https://contoso.sharepoint.com/sites/projects"
	siteArchive  = "https://contoso.sharepoint.com/sites/archive"
)

func newTestTool(t *testing.T, admin *fakeAdmin, store *fakeContentStore, lines ...string) *Tool {
	t.Helper()
	cfg := &config.Config{
		PageSize:        100,
		DuplicatePolicy: "rename",
		DownloadDir:     t.TempDir(),
		ReportDir:       t.TempDir(),
	}
	cons := console.New(strings.NewReader(strings.Join(lines, "\n")), &bytes.Buffer{})
	return NewTool(cfg, admin, store, nil, cons, zaptest.NewLogger(t))
}

func twoSites() *fakeAdmin {
	return &fakeAdmin{sites: []sharepoint.SiteInfo{
		{URL: siteProjects, Title: "Projects"},
		{URL: siteArchive, Title: "Archive"},
	}}
}

func TestEnableTenantAutoTrim(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		admin := twoSites()
		tool := newTestTool(t, admin, &fakeContentStore{}, "y")

		require.NoError(t, tool.EnableTenantAutoTrim(context.Background()))
		assert.Equal(t, []bool{true}, admin.tenantTrims)
	})

	t.Run("declined is a no-op", func(t *testing.T) {
		admin := twoSites()
		tool := newTestTool(t, admin, &fakeContentStore{}, "n")

		require.NoError(t, tool.EnableTenantAutoTrim(context.Background()))
		assert.Empty(t, admin.tenantTrims)
	})
}

func TestEnableSiteAutoTrim(t *testing.T) {
	admin := twoSites()
	tool := newTestTool(t, admin, &fakeContentStore{}, "1", "y")

	require.NoError(t, tool.EnableSiteAutoTrim(context.Background()))
	assert.Equal(t, []string{siteProjects}, admin.siteTrims)
}

func TestEnableSiteAutoTrimFailureContinues(t *testing.T) {
	admin := twoSites()
	admin.failFor = map[string]error{siteProjects: fmt.Errorf("403 forbidden")}
	tool := newTestTool(t, admin, &fakeContentStore{}, "all", "y")

	require.NoError(t, tool.EnableSiteAutoTrim(context.Background()))
	assert.Equal(t, []string{siteArchive}, admin.siteTrims)
}

func TestCleanupByAge(t *testing.T) {
	admin := twoSites()
	tool := newTestTool(t, admin, &fakeContentStore{}, "all", "y", "365")

	require.NoError(t, tool.CleanupByAge(context.Background()))
	require.Len(t, admin.jobs, 2)
	assert.Equal(t, trimJob{siteURL: siteProjects, mode: sharepoint.TrimByAge, threshold: 365}, admin.jobs[0])
}

func TestCleanupByCountRejectsBadThreshold(t *testing.T) {
	admin := twoSites()
	tool := newTestTool(t, admin, &fakeContentStore{}, "1", "y", "lots")

	err := tool.CleanupByCount(context.Background())
	assert.Error(t, err)
	assert.Empty(t, admin.jobs)
}

func TestEnableAndCleanup(t *testing.T) {
	admin := twoSites()
	tool := newTestTool(t, admin, &fakeContentStore{}, "2", "y", "2", "50")

	require.NoError(t, tool.EnableAndCleanup(context.Background()))
	assert.Equal(t, []string{siteArchive}, admin.siteTrims)
	require.Len(t, admin.jobs, 1)
	assert.Equal(t, trimJob{siteURL: siteArchive, mode: sharepoint.TrimByCount, threshold: 50}, admin.jobs[0])
}

func TestStatusCheckWritesReport(t *testing.T) {
	admin := twoSites()
	store := &fakeContentStore{
		items: map[string][]sharepoint.Item{
			siteProjects: {
				{LeafName: "a.docx", SizeBytes: 1024, Created: time.Now(), Modified: time.Now()},
				{LeafName: "sub", IsFolder: true},
			},
			// siteArchive has no preservation store at all.
		},
	}
	tool := newTestTool(t, admin, store, "all", "y")

	require.NoError(t, tool.StatusCheck(context.Background()))

	entries, err := os.ReadDir(tool.cfg.ReportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(tool.cfg.ReportDir, entries[0].Name()))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, siteProjects)
	assert.Contains(t, text, ",ok,")
	assert.Contains(t, text, "no-store")
}

func TestDownloadStoreWritesFilesAndRunLog(t *testing.T) {
	admin := twoSites()
	store := &fakeContentStore{
		items: map[string][]sharepoint.Item{
			siteProjects: {{
				LeafName:          "report.docx",
				ServerRelativeURL: "/sites/projects/phl/report.docx",
				SizeBytes:         7,
				Created:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Modified:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			}},
		},
		content: map[string]string{"/sites/projects/phl/report.docx": "content"},
	}
	tool := newTestTool(t, admin, store, "1", "y")

	require.NoError(t, tool.DownloadStore(context.Background()))

	data, err := os.ReadFile(filepath.Join(tool.cfg.DownloadDir, "projects", "report.docx"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	entries, err := os.ReadDir(tool.cfg.ReportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "preservation-export-")
}

func TestReviewStoreHandlesMissingLibrary(t *testing.T) {
	admin := twoSites()
	tool := newTestTool(t, admin, &fakeContentStore{}, "all", "y")

	require.NoError(t, tool.ReviewStore(context.Background()))
}

func TestRunMenu(t *testing.T) {
	t.Run("dispatch and exit", func(t *testing.T) {
		admin := twoSites()
		tool := newTestTool(t, admin, &fakeContentStore{}, "1", "y", "9")

		require.NoError(t, tool.Run(context.Background()))
		assert.Equal(t, []bool{true}, admin.tenantTrims)
	})

	t.Run("unknown option keeps the menu alive", func(t *testing.T) {
		tool := newTestTool(t, twoSites(), &fakeContentStore{}, "0", "banana", "9")
		require.NoError(t, tool.Run(context.Background()))
	})

	t.Run("cancelled selection returns to the menu", func(t *testing.T) {
		admin := twoSites()
		tool := newTestTool(t, admin, &fakeContentStore{}, "2", "q", "9")

		require.NoError(t, tool.Run(context.Background()))
		assert.Empty(t, admin.siteTrims)
	})

	t.Run("input exhaustion exits cleanly", func(t *testing.T) {
		tool := newTestTool(t, twoSites(), &fakeContentStore{})
		require.NoError(t, tool.Run(context.Background()))
	})
}

func TestPromptAuthMode(t *testing.T) {
	t.Run("pinned mode is untouched", func(t *testing.T) {
		cfg := &config.Config{AuthMode: sharepoint.AuthModeDeviceCode}
		cons := console.New(strings.NewReader("1\n"), &bytes.Buffer{})

		require.NoError(t, PromptAuthMode(cons, cfg))
		assert.Equal(t, sharepoint.AuthModeDeviceCode, cfg.AuthMode)
	})

	t.Run("client secret", func(t *testing.T) {
		cfg := &config.Config{}
		cons := console.New(strings.NewReader("1\ns3cret\n"), &bytes.Buffer{})

		require.NoError(t, PromptAuthMode(cons, cfg))
		assert.Equal(t, sharepoint.AuthModeSecret, cfg.AuthMode)
		assert.Equal(t, "s3cret", cfg.ClientSecret)
	})

	t.Run("certificate", func(t *testing.T) {
		cfg := &config.Config{}
		cons := console.New(strings.NewReader("2\n/etc/certs/app.pfx\npfx-pass\n"), &bytes.Buffer{})

		require.NoError(t, PromptAuthMode(cons, cfg))
		assert.Equal(t, sharepoint.AuthModeCertificate, cfg.AuthMode)
		assert.Equal(t, "/etc/certs/app.pfx", cfg.PfxPath)
		assert.Equal(t, "pfx-pass", cfg.PfxPassword)
	})

	t.Run("invalid choice re-prompts", func(t *testing.T) {
		cfg := &config.Config{}
		cons := console.New(strings.NewReader("7\n3\n"), &bytes.Buffer{})

		require.NoError(t, PromptAuthMode(cons, cfg))
		assert.Equal(t, sharepoint.AuthModeDeviceCode, cfg.AuthMode)
	})
}
