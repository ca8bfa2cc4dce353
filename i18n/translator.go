// Package i18n localizes the labels used when rendering diagnostics.
package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves a localized message for a key (a diagnostic kind or
// a rendering label). data carries optional values to embed, for example
// {"count": "3"}.
type Translator interface {
	Message(key string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"syntax":      "syntax error",
		"structure":   "structure error",
		"attribute":   "attribute error",
		"text":        "unexpected text",
		"valid":       "valid survey ({count} questions)",
		"invalid":     "{count} problem(s) found",
		"unreadable":  "cannot read file",
		"watching":    "watching for changes",
		"written":     "written",
		"unsupported": "unsupported format",
	},
	"ja": {
		"syntax":      "構文エラー",
		"structure":   "構造エラー",
		"attribute":   "属性エラー",
		"text":        "不正なテキスト",
		"valid":       "有効なサーベイです（質問 {count} 件）",
		"invalid":     "{count} 件の問題が見つかりました",
		"unreadable":  "ファイルを読み込めません",
		"watching":    "変更を監視しています",
		"written":     "書き込みました",
		"unsupported": "未対応の形式です",
	},
}

func (t dictTranslator) Message(key string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][key]
	if !ok {
		msg, ok = dictionaries["en"][key]
	}
	if !ok {
		return key
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation. nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for key using the current Translator.
func T(key string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(key, data)
}
