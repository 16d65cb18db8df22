/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rerrors

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
)

func TestWrapUnwrap(t *testing.T) {
	g := NewWithT(t)

	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(StoreUnavailable, "persisting run", cause)

	g.Expect(err.Error()).To(ContainSubstring("store_unavailable"))
	g.Expect(err.Error()).To(ContainSubstring("connection refused"))
	g.Expect(errors.Unwrap(err)).To(Equal(cause))
}

func TestIsMatchesOnCodeOnly(t *testing.T) {
	g := NewWithT(t)

	err := New(LockNotHeld, "token mismatch on release")

	g.Expect(errors.Is(err, New(LockNotHeld, ""))).To(BeTrue())
	g.Expect(errors.Is(err, New(SolverTimeout, ""))).To(BeFalse())
}

func TestCodeOfUnwrapsChain(t *testing.T) {
	g := NewWithT(t)

	inner := New(ConstraintViolation, "duty hour ceiling exceeded")
	outer := fmt.Errorf("validating assignment: %w", inner)

	code, ok := CodeOf(outer)
	g.Expect(ok).To(BeTrue())
	g.Expect(code).To(Equal(ConstraintViolation))
}

func TestCodeOfReturnsFalseForPlainError(t *testing.T) {
	g := NewWithT(t)

	_, ok := CodeOf(errors.New("plain"))
	g.Expect(ok).To(BeFalse())
}
