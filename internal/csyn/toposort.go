package csyn

import (
	"fmt"

	"github.com/rakunlabs/srl/internal/lir"
)

// topoSortFlows orders a node's Derived equations so that by the time any
// equation is evaluated, every other Derived flow its expression reads is
// already available in locals. Uses Kahn's algorithm over the equations'
// dependency graph.
func topoSortFlows(n *lir.Node) ([]string, error) {
	names := make(map[string]bool, len(n.Derived))
	exprOf := make(map[string]lir.Expr, len(n.Derived))
	for _, eq := range n.Derived {
		names[eq.Flow] = true
		exprOf[eq.Flow] = eq.Expr
	}

	inDegree := make(map[string]int, len(names))
	adjacency := make(map[string][]string, len(names))
	for name := range names {
		inDegree[name] = 0
	}

	for name, expr := range exprOf {
		for _, dep := range referencedIdents(expr) {
			if !names[dep] || dep == name {
				continue
			}
			adjacency[dep] = append(adjacency[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range adjacency[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(names) {
		return nil, fmt.Errorf("equation dependency graph contains a cycle (unsatisfiable component dependency DAG)")
	}
	return order, nil
}

// referencedIdents walks e and collects every lir.Ident name it reads,
// recursing into every expression-shaped sub-position.
func referencedIdents(e lir.Expr) []string {
	var out []string
	var walk func(lir.Expr)
	walk = func(e lir.Expr) {
		if e == nil {
			return
		}
		switch x := e.(type) {
		case lir.Ident:
			out = append(out, x.Name)
		case lir.FieldAccess:
			walk(x.Base)
		case lir.MethodCall:
			walk(x.Receiver)
			for _, a := range x.Args {
				walk(a)
			}
		case lir.Closure:
			walk(x.Body)
		case lir.Block:
			for _, s := range x.Stmts {
				switch st := s.(type) {
				case lir.Let:
					walk(st.Value)
				case lir.Assign:
					walk(st.Value)
				}
			}
			walk(x.Result)
		case lir.Match:
			walk(x.Scrutinee)
			for _, arm := range x.Arms {
				walk(arm.Guard)
				walk(arm.Body)
			}
		case lir.IfThenElse:
			walk(x.Cond)
			walk(x.Then)
			walk(x.Else)
		case lir.RecordConstruct:
			for _, fe := range x.Fields {
				walk(fe)
			}
		case lir.InfixOp:
			walk(x.Left)
			walk(x.Right)
		case lir.PrefixOp:
			walk(x.Operand)
		case lir.Call:
			for _, a := range x.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}
