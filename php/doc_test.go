package php

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Foo", "Foo"},
		{"?Foo", "Foo"},
		{`\App\Models\User`, "User"},
		{"Foo|Bar", "Foo"},
		{"Foo[]", "Foo[]"},
		{"$x", ""},
		{"$this", "static"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVarType(t *testing.T) {
	tests := []struct {
		doc, want string
	}{
		{"/** @var Foo */", "Foo"},
		{"/** @var Foo the foo */", "Foo"},
		{"/** @var $bar Foo */", "Foo"},
		{"/** @var Foo|null */", "Foo"},
		{"/** nothing here */", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := VarType(tt.doc); got != tt.want {
			t.Errorf("VarType(%q) = %q, want %q", tt.doc, got, tt.want)
		}
	}
}

func TestReturnType(t *testing.T) {
	tests := []struct {
		doc, want string
	}{
		{"/**\n * @return Foo\n */", "Foo"},
		{"/** @return \\Name\\Space\\Foo|false */", "Foo"},
		{"/** @return $this */", "static"},
		{"/** @param Foo $x */", ""},
	}
	for _, tt := range tests {
		if got := ReturnType(tt.doc); got != tt.want {
			t.Errorf("ReturnType(%q) = %q, want %q", tt.doc, got, tt.want)
		}
	}
}

func TestParamType(t *testing.T) {
	doc := `/**
	 * @param Foo $a
	 * @param Bar|null $ab
	 * @param Baz &$ref
	 * @param Qux ...$rest
	 */`
	tests := []struct {
		variable, want string
	}{
		{"$a", "Foo"},
		{"$ab", "Bar"},
		{"$ref", "Baz"},
		{"$rest", "Qux"},
		{"$missing", ""},
	}
	for _, tt := range tests {
		if got := ParamType(doc, tt.variable); got != tt.want {
			t.Errorf("ParamType(%q) = %q, want %q", tt.variable, got, tt.want)
		}
	}
}

func TestVariableType(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		variable string
		want     string
	}{
		{
			name:     "name first",
			source:   "<?php\n/** @var $user User */\n$user->",
			variable: "$user",
			want:     "User",
		},
		{
			name:     "type first",
			source:   "<?php\n/** @var User $user */\n$user->",
			variable: "$user",
			want:     "User",
		},
		{
			name:     "docblock before variable",
			source:   "<?php\n/** @var User */\n$user = find();\n$user->",
			variable: "$user",
			want:     "User",
		},
		{
			name:     "earliest annotation wins",
			source:   "/* @var $a First */\n/* @var Second $a */",
			variable: "$a",
			want:     "First",
		},
		{
			name:     "prefix of another variable",
			source:   "/** @var Foo $ab */",
			variable: "$a",
			want:     "",
		},
		{
			name:     "no annotation",
			source:   "$a = new Foo();",
			variable: "$a",
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VariableType(tt.source, tt.variable); got != tt.want {
				t.Errorf("VariableType() = %q, want %q", got, tt.want)
			}
		})
	}
}
