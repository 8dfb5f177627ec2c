// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

const i18nPkgPath = "github.com/erikvoorbraak/knvvl-exam/i18n"

// extractGo records the constant msgids passed to i18n.Tr, i18n.TrN and i18n.MsgKey.
func extractGo(c catalogue, pkgs []*packages.Package, root string) {
	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		pos := func(at token.Pos) ref {
			position := p.Fset.Position(at)

			file := position.Filename
			if rel, err := filepath.Rel(root, file); err == nil {
				file = rel
			}

			return ref{file: filepath.ToSlash(file), line: position.Line}
		}

		for _, f := range p.Syntax {
			ast.Inspect(f, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if ok {
					inspectCall(c, p.TypesInfo, call, pos)
				}

				return true
			})
		}
	}
}

func inspectCall(c catalogue, info *types.Info, call *ast.CallExpr, pos func(token.Pos) ref) {
	// i18n.MsgKey("Hello") is a conversion.
	if tv, ok := info.Types[call.Fun]; ok && tv.IsType() {
		if len(call.Args) == 1 && isMsgKey(tv.Type) {
			if msg, ok := constString(info, call.Args[0]); ok {
				c.add(msg, "", pos(call.Args[0].Pos()))
			}
		}

		return
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}

	fn, ok := info.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != i18nPkgPath {
		return
	}

	switch fn.Name() {
	case "Tr": // Tr(ctx, "msg", ...)
		if len(call.Args) >= 2 {
			if msg, ok := constString(info, call.Args[1]); ok {
				c.add(msg, "", pos(call.Args[1].Pos()))
			}
		}
	case "TrN": // TrN(ctx, "singular", "plural", n, ...)
		if len(call.Args) >= 4 {
			singular, ok1 := constString(info, call.Args[1])
			plural, ok2 := constString(info, call.Args[2])

			if ok1 && ok2 {
				c.add(singular, plural, pos(call.Args[1].Pos()))
			}
		}
	}
}

func isMsgKey(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	return named.Obj().Pkg().Path() == i18nPkgPath && named.Obj().Name() == "MsgKey"
}

// constString evaluates expr to a constant string, including constant
// identifiers and expressions like "a" + "b".
func constString(info *types.Info, expr ast.Expr) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}
