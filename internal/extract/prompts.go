package extract

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are extracting structured text from academic paper page images.

Task:
- Identify TOP-LEVEL section headings (Abstract, Introduction, Methods, Results, Discussion, Conclusion, References, etc.).
- Extract the full readable text under each section.
- Preserve true reading order, including multi-column layouts.
- Do NOT invent content. If text is unreadable, omit it.
- Ignore headers, footers, and page numbers.
- Keep the text plain (no markdown), but keep paragraph breaks.
- Use consistent section names across pages (e.g., always "Methods").
- Set next_carry to the name of the section still open at the end of these pages, or "" if the last section ends cleanly.
- On the FIRST pages of the paper, also extract the full title and the ordered author names (names only, no affiliations or emails). Otherwise set title to "" and authors to [].`

// userPrompt builds the per-batch instruction, threading the carry-over
// section name from the previous batch when present.
func userPrompt(pageStart, pageEnd int, carry string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract the structured text from these page images (pages %d-%d of the paper).\n", pageStart, pageEnd)

	if strings.TrimSpace(carry) != "" {
		carry = strings.TrimSpace(carry)
		fmt.Fprintf(&b, "\nCarry-over context:\n")
		fmt.Fprintf(&b, "- The previous batch ended inside the section named %q.\n", carry)
		fmt.Fprintf(&b, "- At the start of these pages, treat text as continuing %q unless you clearly see a new top-level section heading.\n", carry)
		fmt.Fprintf(&b, "- If the heading is not repeated, still label the continued text under %q until a new top-level heading appears.\n", carry)
	}

	return b.String()
}
