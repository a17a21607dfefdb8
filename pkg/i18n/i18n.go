// Package i18n renders user-facing strings in the configured language.
package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys
const (
	NoImagesFound     = "no_images_found"
	NoImagesSelected  = "no_images_selected"
	NoTarget          = "no_target"
	ScanUnreachable   = "scan_unreachable"
	ScanInProgress    = "scan_in_progress"
	ImagesFound       = "images_found"
	SelectedCount     = "selected_count"
	ArchiveBuilding   = "archive_building"
	ArchiveSaved      = "archive_saved"
	ArchiveFailed     = "archive_failed"
	NothingDownloaded = "nothing_downloaded"
	ItemsSkipped      = "items_skipped"
	URLsCopied        = "urls_copied"
	FetchFailed       = "fetch_failed"
	InvalidRequest    = "invalid_request"
	FilterTitle       = "filter_title"
)

type entry struct {
	key string
	en  catalog.Message
	ja  catalog.Message
}

var entries = []entry{
	{NoImagesFound, msg("No images found on this page"), msg("このページに画像が見つかりません")},
	{NoImagesSelected, msg("No images selected"), msg("画像が選択されていません")},
	{NoTarget, msg("No page to scan: give an http or https URL"), msg("スキャンするページがありません: http または https の URL を指定してください")},
	{ScanUnreachable, msg("Could not load %s"), msg("%s を読み込めませんでした")},
	{ScanInProgress, msg("Scanning %s ..."), msg("%s をスキャン中...")},
	{ImagesFound,
		plural.Selectf(1, "%d", "one", "%d image found", "other", "%d images found"),
		msg("%d 件の画像が見つかりました")},
	{SelectedCount, msg("%d of %d selected"), msg("%[2]d 件中 %[1]d 件を選択")},
	{ArchiveBuilding, msg("Downloading %d/%d"), msg("ダウンロード中 %d/%d")},
	{ArchiveSaved, msg("Saved %d images to %s"), msg("%[2]s に %[1]d 件の画像を保存しました")},
	{ArchiveFailed, msg("Archive could not be created: %v"), msg("アーカイブを作成できませんでした: %v")},
	{NothingDownloaded, msg("Nothing could be downloaded"), msg("ダウンロードできた画像がありません")},
	{ItemsSkipped, msg("%d images skipped"), msg("%d 件の画像をスキップしました")},
	{URLsCopied, msg("Copied %d URLs to the clipboard"), msg("%d 件の URL をクリップボードにコピーしました")},
	{FetchFailed, msg("Failed to fetch %s"), msg("%s の取得に失敗しました")},
	{InvalidRequest, msg("Invalid request: %v"), msg("無効なリクエスト: %v")},
	{FilterTitle, msg("Filter"), msg("フィルター")},
}

func msg(s string) catalog.Message {
	return catalog.String(s)
}

var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
	cat       = buildCatalog()
	known     = func() map[string]bool {
		m := make(map[string]bool, len(entries))
		for _, e := range entries {
			m[e.key] = true
		}
		return m
	}()
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, e := range entries {
		if err := b.Set(language.English, e.key, e.en); err != nil {
			panic(err)
		}
		if err := b.Set(language.Japanese, e.key, e.ja); err != nil {
			panic(err)
		}
	}
	return b
}

// Messages renders keys in one language
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns Messages for lang. Unsupported languages fall back to English.
func New(lang string) *Messages {
	tag := language.English
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Language returns the tag actually used
func (m *Messages) Language() language.Tag {
	return m.tag
}

// T renders key with args. Unknown keys render as the key itself.
func (m *Messages) T(key string, args ...interface{}) string {
	if !known[key] {
		return key
	}
	return m.printer.Sprintf(key, args...)
}

// Supported lists the available languages
func Supported() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		out[i] = t.String()
	}
	return out
}
