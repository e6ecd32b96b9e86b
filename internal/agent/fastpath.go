package agent

import (
	"fmt"
	"strings"

	"keeper/internal/domain"
)

// Intent keyword lists. These are tunable heuristics, not contracts: a
// mixed-intent sentence (write verb present) always disables the shortcuts
// and goes through the full loop.
var (
	questionKeywords = []string{
		"哪些", "什么", "多少", "几个", "列出", "列表", "查看", "有没有",
		"what", "which", "how many", "list", "show me",
	}
	writeKeywords = []string{
		"新增", "添加", "创建", "登记", "录入", "修改", "更新", "改成", "变更",
		"删除", "移除", "清空", "注销",
		"create", "add", "new ", "update", "change", "rename", "delete", "remove",
	}
	createKeywords = []string{
		"新增", "添加", "创建", "登记", "录入", "create", "add", "new ",
	}
	destructiveKeywords = []string{
		"修改", "更新", "改成", "变更", "删除", "移除", "清空", "注销",
		"update", "change", "rename", "delete", "remove",
	}
)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// isReadOnlyQuery matches question/list phrasing with no write verbs.
func isReadOnlyQuery(instruction string) bool {
	normalized := strings.ToLower(instruction)
	return containsAny(normalized, questionKeywords) && !containsAny(normalized, writeKeywords)
}

// isCreateIntent drives the repeat-guard fast-track: a pure creation
// request can be planned without further lookups, anything that also reads
// like an update or delete cannot.
func isCreateIntent(instruction string) bool {
	normalized := strings.ToLower(instruction)
	return containsAny(normalized, createKeywords) && !containsAny(normalized, destructiveKeywords)
}

// fastPathKinds maps instruction wording to the collection being browsed.
var fastPathKinds = []struct {
	keywords []string
	kind     domain.EntityKind
	header   string
}{
	{[]string{"物品", "东西", "item"}, domain.KindItem, "物品列表"},
	{[]string{"位置", "地点", "房间", "location", "place"}, domain.KindLocation, "位置列表"},
	{[]string{"活动", "事件", "日程", "event"}, domain.KindEvent, "活动列表"},
	{[]string{"成员", "用户", "member", "user"}, domain.KindMember, "成员列表"},
}

const fastPathRows = 12

// fastPath answers obvious browsing questions from the snapshot without a
// single model call. The listing comes back as a clarification-shaped plan.
func (l *Loop) fastPath(instruction string, snap domain.Snapshot) (domain.LoopResult, bool) {
	if !isReadOnlyQuery(instruction) {
		return domain.LoopResult{}, false
	}
	normalized := strings.ToLower(instruction)
	kind := domain.KindItem
	header := "物品列表"
	for _, entry := range fastPathKinds {
		if containsAny(normalized, entry.keywords) {
			kind = entry.kind
			header = entry.header
			break
		}
	}

	listing := formatListing(snap, kind, header)
	return domain.LoopResult{
		Plan:  domain.Plan{Clarification: listing},
		Trace: []string{"read-only fast path: listed " + string(kind) + "s without model calls"},
		Stats: domain.LoopStats{Rounds: 1},
	}, true
}

func formatListing(snap domain.Snapshot, kind domain.EntityKind, header string) string {
	type row struct{ name, detail string }
	var rows []row
	switch kind {
	case domain.KindItem:
		for _, v := range snap.Items {
			rows = append(rows, row{v.Name, fmt.Sprintf("状态 %s", v.Status)})
		}
	case domain.KindLocation:
		for _, v := range snap.Locations {
			rows = append(rows, row{v.Name, string(v.Visibility)})
		}
	case domain.KindEvent:
		for _, v := range snap.Events {
			detail := ""
			if !v.StartsAt.IsZero() {
				detail = v.StartsAt.Format("2006-01-02 15:04")
			}
			rows = append(rows, row{v.Title, detail})
		}
	case domain.KindMember:
		for _, v := range snap.Members {
			rows = append(rows, row{v.Name, "@" + v.Username})
		}
	}

	if len(rows) == 0 {
		return header + "：暂无记录。"
	}

	var b strings.Builder
	b.WriteString(header + "：\n")
	shown := rows
	if len(shown) > fastPathRows {
		shown = shown[:fastPathRows]
	}
	for i, r := range shown {
		if r.detail != "" {
			fmt.Fprintf(&b, "%d. %s（%s）\n", i+1, r.name, r.detail)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r.name)
		}
	}
	if rest := len(rows) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "……另有 %d 条未显示。", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}
