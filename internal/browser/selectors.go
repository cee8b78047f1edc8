package browser

import (
	"fmt"
	"strings"
)

// Everything below is tied to the ExtJS markup of the portal. When the
// portal changes, this is the file to update.

const (
	selLoginInput   = `input[name=Login]`
	selPassword     = `#Haslo`
	selLoginButton  = `#ButtonLogowanie`
	selMainMenu     = `#ext-gen43`
	selGridScroller = `.x-grid3-scroller`
	selAddButton    = `.add`
	selReturnPanel  = `#ext-gen61`
	selReturnLink   = `#ext-gen61 .vlibrary-topLink`
	selDocument     = `html`

	xpSettlementButton = `//em[contains(@class, 'x-unselectable')]//button[contains(text(), 'Rozliczenie dotacji')]`
	xpNotification     = `//span[contains(@class,'ext-mb-text') and contains(., 'Masz nowe wiadomości')]`
	xpNotificationOK   = `//div[contains(@class,'x-window') and .//span[contains(@class,'ext-mb-text') and contains(., 'Masz nowe wiadomości')]]//button[normalize-space(text())='OK']`

	jsReadyState = `document.readyState === 'complete'`

	jsHideMasks = `Array.from(document.querySelectorAll('.ext-el-mask')).map(m => { m.style.display = 'none'; return 1; }).length`

	jsSelectedGroup = `(() => {
	const row = document.querySelector('div.x-grid3-row-selected');
	if (!row) return '';
	const group = row.closest('div[id*="Rozdzial-"]');
	return group ? group.id : '';
})()`
)

// xpathLiteral quotes s for use inside an XPath 1.0 expression, which has no
// escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func xpTab(name string) string {
	return fmt.Sprintf(
		`//li[.//span[contains(@class, 'x-tab-strip-text') and normalize-space(text())=%s]]`,
		xpathLiteral(name),
	)
}

func xpGroupTitle(chapter string) string {
	return fmt.Sprintf(
		`//div[contains(@class, 'x-grid-group-title') and normalize-space(text())=%s]`,
		xpathLiteral(chapter),
	)
}

func xpGroupBody(chapter string) string {
	return fmt.Sprintf(
		`//div[contains(@class, 'x-grid-group-body') and ancestor::div[contains(@class, 'x-grid-group') and .//div[contains(text(), %s)]]]`,
		xpathLiteral(chapter),
	)
}

// xpMonthInGroup finds a month row inside the chapter group whose element id
// contains groupID.
func xpMonthInGroup(groupID, month string) string {
	return fmt.Sprintf(
		`//div[contains(@id, %s)]//div[contains(@class, 'x-grid3-col-1') and normalize-space(text())=%s]`,
		xpathLiteral(groupID),
		xpathLiteral(month),
	)
}

// xpMonthAnywhere finds a month row in any group, skipping the half-year and
// yearly "Raport" rows.
func xpMonthAnywhere(month string) string {
	return fmt.Sprintf(
		`//div[contains(@class, 'x-grid3-row')]//div[contains(@class, 'x-grid3-cell-inner') and normalize-space(text())=%s and not(ancestor-or-self::*[contains(text(), 'Raport')])]`,
		xpathLiteral(month),
	)
}

func xpSelectedMonth(month string) string {
	return fmt.Sprintf(
		`//div[contains(@class, 'x-grid3-row-selected')]//div[normalize-space(text())=%s]`,
		xpathLiteral(month),
	)
}

func selChapterPencil(chapterID int) string {
	return fmt.Sprintf(`#ext-gen90-gp-Rozdzial-%d-bd .pencil`, chapterID)
}

func chapterGroupID(chapter string) string {
	return "Rozdzial-" + chapter
}
