// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import "testing"

// TestInvM4 grounds Camera.Update's inverse view-projection (camera.go's
// c.invVP.Inv(c.viewProj)), used to unproject cluster froxels and frustum
// corners back to world space.
func TestInvM4(t *testing.T) {
	a := NewM4().Persp(60, 800.0/600.0, 0.1, 100)
	m := NewM4().Inv(a)
	product := NewM4().Mult(a, m)
	if !product.Aeq(M4I) {
		t.Errorf(format, product.Dump(), M4I.Dump())
	}
}

// TestInvM4Singular grounds matrix4inv.go's documented fallback: a
// singular matrix inverts to the identity rather than propagating NaNs.
func TestInvM4Singular(t *testing.T) {
	singular := &M4{} // the zero matrix has no inverse.
	m := NewM4().Inv(singular)
	if !m.Eq(M4I) {
		t.Errorf(format, m.Dump(), M4I.Dump())
	}
}
