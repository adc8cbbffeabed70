package transcribe

import "fmt"

// Titles sent with each completion request for provider-side attribution.
const (
	correctionTitle  = "Oshi3 Nihonto OCR Correction"
	translationTitle = "Oshi3 Nihonto Translation"
)

const correctionPrompt = `You are a Japanese historical sword catalog expert.

I have OCR text extracted from a Japanese sword catalog (重要刀剣等図譜). The OCR may contain errors due to:
- Old/historical kanji forms
- Vertical text layout confusion
- Similar-looking characters
- Technical sword terminology

**Your task:** Review the OCR text alongside the image and produce CORRECTED Japanese text.

**Instructions:**
1. Compare the OCR with the actual image
2. Fix any OCR errors you identify
3. Preserve the original structure and layout
4. Use proper historical kanji forms when appropriate
5. Output ONLY the corrected Japanese text, nothing else

**OCR Text:**
%s

**Corrected Text:**`

const translationPrompt = `You are a Japanese sword expert translator specializing in historical sword catalogs.

I have a corrected Japanese text description from a Important Sword Catalog (重要刀剣等図譜).

**Your task:** Translate this to well-structured English Markdown.

**Output Format:**

# [Sword Type] - [Smith/School Name]

## Basic Information
- **Classification:** [太刀/脇指/短刀/etc.]
- **Signature (銘):** [Transcribe signature]
- **Attribution:** [If unsigned, the attributed smith/school]
- **Period:** [Estimated period/era]

## Measurements (法量)
- **Total Length:** [XX cm]
- **Blade Length:** [XX cm]
- **Curvature (反り):** [XX cm]
- **Base Width (元幅):** [XX cm]
- **Tip Width (先幅):** [XX cm]
- **Blade Thickness:** [XX cm]

## Physical Description (形状)
[Detailed description of blade shape, curvature, thickness, tip form, etc.]

## Hamon (刃文) - Temper Pattern
[Description of the temper line pattern]

## Jigane (地鉄) - Steel Pattern
[Description of the steel grain pattern]

## Nakago (茎) - Tang
[Description of tang condition, file marks, patina, holes, etc.]

## Historical Context (伝来)
[Provenance, ownership history, notable information]

## Notes
[Any additional observations or scholarly notes]

---

**Japanese Text:**
%s

**English Translation (Markdown):**`

// CorrectionPrompt embeds raw OCR text in the correction instructions.
func CorrectionPrompt(rawOCR string) string { return fmt.Sprintf(correctionPrompt, rawOCR) }

// TranslationPrompt embeds corrected Japanese text in the translation instructions.
func TranslationPrompt(corrected string) string { return fmt.Sprintf(translationPrompt, corrected) }
