package review

import (
	"reflect"
	"testing"
)

func TestExtractImportTokens(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "es default import",
			src:  `import x from './b';`,
			want: []string{"./b"},
		},
		{
			name: "es named import",
			src:  `import { a, b } from '../lib/util';`,
			want: []string{"../lib/util"},
		},
		{
			name: "es namespace import",
			src:  `import * as ns from './ns';`,
			want: []string{"./ns"},
		},
		{
			name: "es side effect import",
			src:  `import './styles.css';`,
			want: []string{"./styles.css"},
		},
		{
			name: "es bare module ignored",
			src:  `import fs from 'fs';`,
			want: nil,
		},
		{
			name: "re-export",
			src:  `export { helper } from './helpers';`,
			want: []string{"./helpers"},
		},
		{
			name: "star re-export",
			src:  `export * from './types';`,
			want: []string{"./types"},
		},
		{
			name: "commonjs require",
			src:  `const db = require('./db');`,
			want: []string{"./db"},
		},
		{
			name: "commonjs bare module ignored",
			src:  `const _ = require('lodash');`,
			want: nil,
		},
		{
			name: "python relative from-import",
			src:  "from .utils import helper\n",
			want: []string{".utils"},
		},
		{
			name: "python package from-import",
			src:  "from . import models\n",
			want: []string{"."},
		},
		{
			name: "python parent from-import",
			src:  "from ..shared import config\n",
			want: []string{"..shared"},
		},
		{
			name: "python absolute import ignored",
			src:  "from os import path\nimport sys\n",
			want: nil,
		},
		{
			name: "c include quoted",
			src:  "#include \"util.h\"\n#include <stdio.h>\n",
			want: []string{"util.h"},
		},
		{
			name: "php require_once",
			src:  `require_once('./inc/db.php');`,
			want: []string{"./inc/db.php"},
		},
		{
			name: "php include without parens",
			src:  `include 'helpers.php';`,
			want: []string{"helpers.php"},
		},
		{
			name: "ruby require_relative",
			src:  `require_relative 'helper'`,
			want: []string{"helper"},
		},
		{
			name: "rust markers contribute nothing",
			src:  "mod parser;\npub mod lexer;\nuse crate::token::Token;\n",
			want: nil,
		},
		{
			name: "duplicates collapsed",
			src:  "import a from './b';\nimport c from './b';\n",
			want: []string{"./b"},
		},
		{
			name: "first seen order within an idiom",
			src:  "import a from './a';\nimport b from './b';\nimport c from './c';\n",
			want: []string{"./a", "./b", "./c"},
		},
		{
			name: "no imports",
			src:  "const x = 1;\n",
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractImportTokens(tc.src)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractImportTokens() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractImportTokensPure(t *testing.T) {
	src := "import a from './a';\nrequire('./r');\n"
	first := ExtractImportTokens(src)
	second := ExtractImportTokens(src)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated extraction differs: %v vs %v", first, second)
	}
}
