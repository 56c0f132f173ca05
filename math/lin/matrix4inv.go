// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// matrix4inv.go generalizes M3.Inv (cofactor expansion) to 4x4. A 4x4
// cofactor expansion needs sixteen 3x3 determinants; Gauss-Jordan
// elimination on an augmented [A|I] matrix reaches the same result with
// far less code to get wrong, so that's what's used here instead.

// Inv updates m to be the inverse of matrix a and returns m. m is set to
// the identity if a is singular (no inverse exists).
func (m *M4) Inv(a *M4) *M4 {
	var rows [4][8]float64
	rows[0] = [8]float64{a.Xx, a.Xy, a.Xz, a.Xw, 1, 0, 0, 0}
	rows[1] = [8]float64{a.Yx, a.Yy, a.Yz, a.Yw, 0, 1, 0, 0}
	rows[2] = [8]float64{a.Zx, a.Zy, a.Zz, a.Zw, 0, 0, 1, 0}
	rows[3] = [8]float64{a.Wx, a.Wy, a.Wz, a.Ww, 0, 0, 0, 1}

	for col := 0; col < 4; col++ {
		pivot := col
		best := absf(rows[col][col])
		for r := col + 1; r < 4; r++ {
			if v := absf(rows[r][col]); v > best {
				pivot, best = r, v
			}
		}
		if best < Epsilon {
			return m.Set(M4I) // singular: no inverse.
		}
		rows[col], rows[pivot] = rows[pivot], rows[col]

		inv := 1 / rows[col][col]
		for c := 0; c < 8; c++ {
			rows[col][c] *= inv
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			factor := rows[r][col]
			if factor == 0 {
				continue
			}
			for c := 0; c < 8; c++ {
				rows[r][c] -= factor * rows[col][c]
			}
		}
	}

	m.Xx, m.Xy, m.Xz, m.Xw = rows[0][4], rows[0][5], rows[0][6], rows[0][7]
	m.Yx, m.Yy, m.Yz, m.Yw = rows[1][4], rows[1][5], rows[1][6], rows[1][7]
	m.Zx, m.Zy, m.Zz, m.Zw = rows[2][4], rows[2][5], rows[2][6], rows[2][7]
	m.Wx, m.Wy, m.Wz, m.Ww = rows[3][4], rows[3][5], rows[3][6], rows[3][7]
	return m
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
