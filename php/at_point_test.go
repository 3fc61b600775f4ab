package php

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// contextAtMarker resolves the context at the position of "|" in source.
func contextAtMarker(t *testing.T, r *Resolver, source string) Context {
	t.Helper()
	cursor := strings.Index(source, "|")
	if cursor < 0 {
		t.Fatalf("no cursor marker in %q", source)
	}
	return r.ContextAt(source[:cursor]+source[cursor+1:], cursor)
}

func TestContextAt(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   Context
	}{
		{
			name:   "empty source",
			source: "|",
			want:   Context{},
		},
		{
			name:   "member access with empty partial",
			source: "<?php $a->|",
			want:   Context{Chain: []string{"$a", ""}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "member access with partial",
			source: "<?php $a->fo|",
			want:   Context{Chain: []string{"$a", "fo"}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "nullsafe access",
			source: "<?php $a?->fo|",
			want:   Context{Chain: []string{"$a", "fo"}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "static access",
			source: "<?php Foo::|",
			want:   Context{Chain: []string{"Foo", ""}, Operator: OperatorStatic, Visibility: VisibilityPublic},
		},
		{
			name:   "call chain skips arguments",
			source: "<?php $x = $a->setB($b, $c->d())->ge|",
			want:   Context{Chain: []string{"$a", "setB", "ge"}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "array index is skipped",
			source: "<?php $rows[0]->|",
			want:   Context{Chain: []string{"$rows", ""}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "unbalanced parenthesis ends the chain",
			source: "<?php foo($a->|",
			want:   Context{Chain: []string{"$a", ""}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "concatenation ends the chain",
			source: "<?php echo 'x' . $a->|",
			want:   Context{Chain: []string{"$a", ""}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "compound assignment ends the chain",
			source: "<?php $s ??= $a->|",
			want:   Context{Chain: []string{"$a", ""}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "new ends the chain",
			source: "<?php $x = new Fo|",
			want:   Context{Chain: []string{"Fo"}, Visibility: VisibilityPublic},
		},
		{
			name:   "return keyword ends the chain",
			source: "<?php return $a->b|",
			want:   Context{Chain: []string{"$a", "b"}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
		{
			name:   "bare identifier",
			source: "<?php Us|",
			want:   Context{Chain: []string{"Us"}, Visibility: VisibilityPublic},
		},
		{
			name:   "nearest operator wins",
			source: "<?php Foo::bar()->|",
			want:   Context{Chain: []string{"Foo", "bar", ""}, Operator: OperatorMember, Visibility: VisibilityPublic},
		},
	}

	r := NewResolver(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contextAtMarker(t, r, tt.source)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ContextAt() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextAtSelfReference(t *testing.T) {
	source := `<?php
class Child extends Base {
    public function a() {
        %s
    }
}
`
	tests := []struct {
		expr string
		want Context
	}{
		{"$this->|", Context{Chain: []string{"Child", ""}, Operator: OperatorMember, Visibility: VisibilityAll}},
		{"$this->x->|", Context{Chain: []string{"Child", "x", ""}, Operator: OperatorMember, Visibility: VisibilityPublic}},
		{"self::|", Context{Chain: []string{"Child", ""}, Operator: OperatorStatic, Visibility: VisibilityAll}},
		{"static::cr|", Context{Chain: []string{"Child", "cr"}, Operator: OperatorStatic, Visibility: VisibilityAll}},
		{"parent::|", Context{Chain: []string{"Base", ""}, Operator: OperatorStatic, Visibility: VisibilityPublic}},
	}

	r := NewResolver(nil, nil)
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := contextAtMarker(t, r, strings.Replace(source, "%s", tt.expr, 1))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ContextAt() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextAtVariableAnnotation(t *testing.T) {
	source := `<?php
/** @var Mailer $mailer */
$mailer = app('mailer');
$mailer->se|
/** @var $late Late */
`
	got := contextAtMarker(t, NewResolver(nil, nil), source)
	want := Context{Chain: []string{"Mailer", "se"}, Operator: OperatorMember, Visibility: VisibilityPublic}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ContextAt() mismatch (-want +got):\n%s", diff)
	}

	// Annotations after the cursor still count.
	got = contextAtMarker(t, NewResolver(nil, nil), "<?php $late->|\n/** @var $late Late */")
	if got.Chain[0] != "Late" {
		t.Errorf("Chain[0] = %q, want %q", got.Chain[0], "Late")
	}
}

func TestContextAtRewritesFactories(t *testing.T) {
	rules := Chain{
		Rules{{Pattern: `Mage::getModel\('(\w+)'\)`, Class: "%1", Capitalize: true}},
		Rules{{Pattern: `\$this->get\('(\w+)'\)`, Class: "%1"}},
	}
	r := NewResolver(nil, rules)

	got := contextAtMarker(t, r, "<?php $x = Mage::getModel('order')->|")
	want := Context{Chain: []string{"Order", ""}, Operator: OperatorMember, Visibility: VisibilityPublic}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ContextAt() mismatch (-want +got):\n%s", diff)
	}
}

func TestContextAtCursorBeyondSource(t *testing.T) {
	got := ContextAt("<?php $a->b", 100)
	want := Context{Chain: []string{"$a", "b"}, Operator: OperatorMember, Visibility: VisibilityPublic}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ContextAt() mismatch (-want +got):\n%s", diff)
	}
}
