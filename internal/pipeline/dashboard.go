package pipeline

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"
	"time"

	"smart-pdf-chatbot/internal/model"
)

// LineBreak 是换行转换后使用的标记。
const LineBreak = "<br>"

// Transform 是对比报告渲染中的一步纯文本改写。
type Transform func(string) string

// ComparisonTransforms 按固定顺序把模型原始回复改写为可直接嵌入页面的 HTML 片段。
// 顺序有依赖：列表识别依赖换行标记，必须在换行转换之后。
var ComparisonTransforms = []Transform{
	EscapeHTML,
	StripEmphasis,
	ConvertLineBreaks,
	MarkSectionHeadings,
	MarkListItems,
}

// EscapeHTML 转义模型输出中的 HTML 特殊字符。
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// StripEmphasis 删除所有 Markdown 强调符号 "*"。
func StripEmphasis(s string) string {
	return strings.ReplaceAll(s, "*", "")
}

// ConvertLineBreaks 把 \r\n、\r、\n 统一转换为 <br>。
func ConvertLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", LineBreak)
}

// sectionHeadings 只识别这两个标题，区分大小写。
var sectionHeadings = []struct {
	literal string
	class   string
}{
	{literal: "Similarities:", class: "similarities"},
	{literal: "Differences:", class: "differences"},
}

// MarkSectionHeadings 把 "Similarities:" 与 "Differences:" 包装为带分类 class 的 h2。
func MarkSectionHeadings(s string) string {
	for _, h := range sectionHeadings {
		label := strings.TrimSuffix(h.literal, ":")
		s = strings.ReplaceAll(s, h.literal,
			fmt.Sprintf(`<h2 class="section-heading %s">%s</h2>`, h.class, label))
	}
	return s
}

var listItemPattern = regexp.MustCompile(`^(?:(-)|(\d+)\.) (.*)$`)

// MarkListItems 识别行首（文本开头或紧随 <br>）的 "- " 与 "<数字>. " 前缀，
// 改写为符号 span 加文本 span，行内其余内容原样保留到下一个 <br>。
func MarkListItems(s string) string {
	lines := strings.Split(s, LineBreak)
	for i, line := range lines {
		m := listItemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] == "-" {
			lines[i] = `<span class="bullet">&bull;</span><span class="item-text">` + m[3] + `</span>`
		} else {
			lines[i] = `<span class="number">` + m[2] + `.</span><span class="item-text">` + m[3] + `</span>`
		}
	}
	return strings.Join(lines, LineBreak)
}

// RenderComparisonFragment 依次应用 ComparisonTransforms。
// 回复中没有任何可识别标记时只做换行转换（以及 HTML 转义），这不是错误。
func RenderComparisonFragment(raw string) string {
	out := raw
	for _, t := range ComparisonTransforms {
		out = t(out)
	}
	return out
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f4f6fb; margin: 0; color: #1f2933; }
  header { background: #1e3a8a; color: #fff; padding: 24px 40px; }
  header h1 { margin: 0; font-size: 24px; }
  header p { margin: 6px 0 0; opacity: .8; font-size: 13px; }
  .container { max-width: 960px; margin: 32px auto; background: #fff; border-radius: 10px; padding: 32px 40px; box-shadow: 0 2px 10px rgba(0,0,0,.06); line-height: 1.6; }
  .section-heading { margin: 24px 0 8px; padding-bottom: 6px; border-bottom: 2px solid; font-size: 20px; }
  .section-heading.similarities { color: #047857; border-color: #10b981; }
  .section-heading.differences { color: #b45309; border-color: #f59e0b; }
  .bullet, .number { display: inline-block; min-width: 24px; font-weight: 600; color: #1e3a8a; }
  .item-text { display: inline; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p>Generated {{.GeneratedAt}}</p>
</header>
<div class="container">
{{.Body}}
</div>
</body>
</html>
`))

type dashboardPage struct {
	Title       string
	GeneratedAt string
	Body        template.HTML
}

// BuildComparisonArtifact 渲染完整的 HTML 报告页面。
func BuildComparisonArtifact(id, rawReply string, createdAt time.Time) (model.ComparisonArtifact, error) {
	page := dashboardPage{
		Title:       "Document Comparison",
		GeneratedAt: createdAt.Format("2006-01-02 15:04:05"),
		// 片段已经过 EscapeHTML，可以作为可信 HTML 嵌入。
		Body: template.HTML(RenderComparisonFragment(rawReply)),
	}
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, page); err != nil {
		return model.ComparisonArtifact{}, fmt.Errorf("render dashboard template: %w", err)
	}
	return model.ComparisonArtifact{ID: id, HTMLBody: buf.String(), CreatedAt: createdAt}, nil
}
