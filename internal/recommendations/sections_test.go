package recommendations

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ifs-actionplan/internal/plans"
	"ifs-actionplan/internal/profile"
)

func TestExtractSections(t *testing.T) {
	text := `Voici mes recommandations.

### 1. CORRECTION IMMÉDIATE :
Isoler le lot concerné.

**Type de preuve** : Photo du lot isolé et fiche de blocage.

**Cause probable**
- Absence de procédure

#### Action corrective
Rédiger la procédure de blocage.

**Conclusion** : Le guide insiste sur la traçabilité.`

	got := ExtractSections(text, profile.Default().Sections)
	want := []plans.Section{
		{Heading: "Correction immédiate", Body: "Isoler le lot concerné."},
		{Heading: "Type de preuve", Body: "Photo du lot isolé et fiche de blocage."},
		{Heading: "Cause probable", Body: "Absence de procédure"},
		{Heading: "Action corrective", Body: "Rédiger la procédure de blocage."},
		{Heading: "Conclusion", Body: "Le guide insiste sur la traçabilité."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSectionsIgnoresIntroMentions(t *testing.T) {
	text := `Voici un plan couvrant la correction immédiate, le type de preuve, la cause probable et l'action corrective.

### Correction immédiate
Isoler le lot.

2) Type de preuve : bon de blocage signé.

- **Cause probable** : consigne non affichée.

> Action corrective
Afficher la consigne au poste.`

	got := ExtractSections(text, profile.Default().Sections)
	want := []plans.Section{
		{Heading: "Correction immédiate", Body: "Isoler le lot."},
		{Heading: "Type de preuve", Body: "bon de blocage signé."},
		{Heading: "Cause probable", Body: "consigne non affichée."},
		{Heading: "Action corrective", Body: "Afficher la consigne au poste."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSectionsFallsBackToInlineMention(t *testing.T) {
	got := ExtractSections("En conclusion : rien à signaler", []string{"Conclusion"})
	want := []plans.Section{{Heading: "Conclusion", Body: "rien à signaler"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSectionsSkipsMissingHeadings(t *testing.T) {
	got := ExtractSections("Conclusion: rien à signaler", []string{"Cause probable", "Conclusion"})
	want := []plans.Section{{Heading: "Conclusion", Body: "rien à signaler"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
	if got := ExtractSections("texte libre", []string{"Conclusion"}); len(got) != 0 {
		t.Fatalf("expected no sections, got %v", got)
	}
}

func TestIndexFold(t *testing.T) {
	if got := indexFold("Étape : CAUSE probable", "cause PROBABLE"); got != len("Étape : ") {
		t.Fatalf("unexpected index %d", got)
	}
	if indexFold("abc", "abcd") != -1 {
		t.Fatalf("expected -1 for longer needle")
	}
}
