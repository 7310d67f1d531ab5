package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

func testConfig(dialect string) Config {
	return Config{
		Dialect:      dialect,
		BaseURL:      "http://updates.example.com",
		FileListPath: "/api/file_list",
		Device:       "mako",
	}
}

func mustDialect(t *testing.T, cfg Config) Dialect {
	t.Helper()
	d, err := NewDialect(cfg)
	require.NoError(t, err)
	return d
}

func TestNewDialect_Unknown(t *testing.T) {
	_, err := NewDialect(Config{Dialect: "rss"})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestEOS_Query(t *testing.T) {
	d := mustDialect(t, testConfig(DialectEOS))
	require.Equal(t, "owner=eos&size=5&device=mako&info=epoch,url,md5sum", d.Query())
	require.Equal(t, "http://updates.example.com/api/file_list?owner=eos&size=5&device=mako&info=epoch,url,md5sum", d.URL())

	cfg := testConfig(DialectEOS)
	cfg.Debug = true
	cfg.Size = 10
	d = mustDialect(t, cfg)
	require.Equal(t, "owner=eos&size=10&device=mako&info="+InfoFieldsVerbose, d.Query())
}

func TestLegacy_Query(t *testing.T) {
	d := mustDialect(t, testConfig(DialectLegacy))
	require.Equal(t, "start=0&size=5&device=mako&info=epoch,url,md5sum", d.Query())
}

func TestEOS_Parse(t *testing.T) {
	body := `{
	  "result": "ok",
	  "data": {"file_list": [
	    {"name": "eos-mako-200.zip", "epoch": 200, "url": "/builds/eos-mako-200.zip", "md5sum": "aa"},
	    {"name": "eos-mako-100.zip", "epoch": "100", "url": "/builds/eos-mako-100.zip", "md5sum": "bb", "sdk": 21},
	    {"name": "broken.zip", "epoch": 300, "url": "/builds/broken.zip"},
	    {"name": "zero.zip", "epoch": 0, "url": "/builds/zero.zip", "md5sum": "cc"},
	    {"name": "bad-epoch.zip", "epoch": "soon", "url": "/builds/x.zip", "md5sum": "dd"}
	  ]}
	}`
	cfg := testConfig(DialectEOS)
	cfg.Channel = artifact.KindRelease

	res, err := mustDialect(t, cfg).Parse([]byte(body))
	require.NoError(t, err)
	require.False(t, res.Failed)
	require.Equal(t, 3, res.Skipped)
	require.Len(t, res.Builds, 2)

	first := res.Builds[0]
	require.Equal(t, "eos-mako-200.zip", first.Name())
	require.Equal(t, int64(200), first.Timestamp())
	require.Equal(t, DefaultAPILevel, first.APILevel())
	require.Equal(t, "http://updates.example.com/builds/eos-mako-200.zip", first.DownloadURL())
	require.Equal(t, "aa", first.Checksum())
	require.Equal(t, artifact.KindRelease, first.Kind())

	require.Equal(t, int64(100), res.Builds[1].Timestamp())
	require.Equal(t, 21, res.Builds[1].APILevel())
}

func TestEOS_ParseCompactEntryWithoutName(t *testing.T) {
	body := `{"result":"ok","data":{"file_list":[{"epoch":5,"url":"/b/eos-5.zip","md5sum":"ff"}]}}`
	res, err := mustDialect(t, testConfig(DialectEOS)).Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, res.Builds, 1)
	require.Equal(t, "eos-5.zip", res.Builds[0].Name())
}

func TestEOS_ParseFailedResult(t *testing.T) {
	body := `{"result":"failed","data":{"message":"unknown device"}}`
	res, err := mustDialect(t, testConfig(DialectEOS)).Parse([]byte(body))
	require.NoError(t, err)
	require.True(t, res.Failed)
	require.Equal(t, "unknown device", res.ServerMessage)
	require.Empty(t, res.Builds)
}

func TestParse_InvalidJSON(t *testing.T) {
	for _, name := range []string{DialectEOS, DialectLegacy} {
		_, err := mustDialect(t, testConfig(name)).Parse([]byte(`{"result": "ok", "data": [`))
		require.True(t, errors.HasCategory(err, errors.CategoryParse), name)
	}
}

func TestLegacy_ParseDataAndTopLevel(t *testing.T) {
	d := mustDialect(t, testConfig(DialectLegacy))

	res, err := d.Parse([]byte(`{"data":{"file_list":[{"name":"a.zip","epoch":1,"url":"/a.zip","md5sum":"1"}]}}`))
	require.NoError(t, err)
	require.Len(t, res.Builds, 1)

	res, err = d.Parse([]byte(`{"file_list":[{"name":"b.zip","epoch":2,"url":"https://mirror.example.com/b.zip","md5sum":"2"}]}`))
	require.NoError(t, err)
	require.Len(t, res.Builds, 1)
	require.Equal(t, "https://mirror.example.com/b.zip", res.Builds[0].DownloadURL())
}

func TestParse_RejectsNonObjectBodies(t *testing.T) {
	bodies := []string{`null`, `[]`, `"ok"`, `42`, ``}
	for _, name := range []string{DialectEOS, DialectLegacy} {
		d := mustDialect(t, testConfig(name))
		for _, body := range bodies {
			_, err := d.Parse([]byte(body))
			require.True(t, errors.HasCategory(err, errors.CategoryParse), "%s %q", name, body)
		}
	}
}

func TestEOS_ParseRequiresResultAndData(t *testing.T) {
	d := mustDialect(t, testConfig(DialectEOS))
	bodies := []string{
		`{}`,
		`{"data":{"file_list":[]}}`,
		`{"result":"ok"}`,
		`{"result":"ok","data":null}`,
		`{"result":"ok","data":{}}`,
		`{"result":"failed"}`,
		`{"result":7,"data":{"file_list":[]}}`,
	}
	for _, body := range bodies {
		_, err := d.Parse([]byte(body))
		require.True(t, errors.HasCategory(err, errors.CategoryParse), body)
	}

	res, err := d.Parse([]byte(`{"result":"ok","data":{"file_list":[]}}`))
	require.NoError(t, err)
	require.Empty(t, res.Builds)
}

func TestLegacy_ParseRequiresFileList(t *testing.T) {
	d := mustDialect(t, testConfig(DialectLegacy))
	for _, body := range []string{`{}`, `{"data":{}}`, `{"file_list":null}`} {
		_, err := d.Parse([]byte(body))
		require.True(t, errors.HasCategory(err, errors.CategoryParse), body)
	}

	res, err := d.Parse([]byte(`{"data":{"file_list":[]}}`))
	require.NoError(t, err)
	require.Empty(t, res.Builds)
}

func TestParse_EpochMustBeWholeInt64(t *testing.T) {
	body := `{"result":"ok","data":{"file_list":[
	  {"name":"frac.zip","epoch":1.9,"url":"/a.zip","md5sum":"a"},
	  {"name":"huge.zip","epoch":1e30,"url":"/b.zip","md5sum":"b"},
	  {"name":"frac-str.zip","epoch":"2.5","url":"/c.zip","md5sum":"c"},
	  {"name":"nan.zip","epoch":"NaN","url":"/d.zip","md5sum":"d"},
	  {"name":"exp.zip","epoch":1.7e9,"url":"/e.zip","md5sum":"e"}
	]}}`
	res, err := mustDialect(t, testConfig(DialectEOS)).Parse([]byte(body))
	require.NoError(t, err)
	require.Equal(t, 4, res.Skipped)
	require.Len(t, res.Builds, 1)
	require.Equal(t, "exp.zip", res.Builds[0].Name())
	require.Equal(t, int64(1700000000), res.Builds[0].Timestamp())
}
