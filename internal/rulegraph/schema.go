package rulegraph

// schema is the Mangle program run over a proof graph. Base predicates are
// filled from the graph; premise_holds is computed by the verifier's own
// satisfaction check because blank-node matching has no Datalog encoding.
const schema = `
Decl implies(Antecedent, Conclusion).
Decl includes(Document, Formula).
Decl conclusion(Document, Formula).
Decl premise_holds(Formula).

Decl has_rule(Formula).
Decl reachable(From, To).
Decl cyclic(Formula).
Decl unsupported(Document, Formula).
Decl holds(Formula).
Decl derivable(Formula).
Decl unreached(Document, Formula).

has_rule(C) :- implies(_, C).

reachable(A, C) :- implies(A, C).
reachable(A, C) :- implies(A, B), reachable(B, C).
cyclic(A) :- reachable(A, A).

unsupported(D, C) :- conclusion(D, C), !has_rule(C).

holds(A) :- premise_holds(A).
holds(C) :- derivable(C).
derivable(C) :- implies(A, C), holds(A).

unreached(D, C) :- conclusion(D, C), has_rule(C), !derivable(C).
`
