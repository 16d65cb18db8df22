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

package cache

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestSetGetRoundTrips(t *testing.T) {
	g := NewWithT(t)

	c := New(ShortTTL)
	c.Set("run:1:status", "running")

	value, ok := c.Get("run:1:status")

	g.Expect(ok).To(BeTrue())
	g.Expect(value).To(Equal("running"))
}

func TestInvalidatePrefixDropsOnlyMatchingKeys(t *testing.T) {
	g := NewWithT(t)

	c := New(MediumTTL)
	c.Set("run:1:status", "running")
	c.Set("run:1:violations", 3)
	c.Set("run:2:status", "pending")

	c.InvalidatePrefix("run:1:")

	_, ok1 := c.Get("run:1:status")
	_, ok2 := c.Get("run:1:violations")
	_, ok3 := c.Get("run:2:status")

	g.Expect(ok1).To(BeFalse())
	g.Expect(ok2).To(BeFalse())
	g.Expect(ok3).To(BeTrue())
}

func TestDeleteRemovesSingleKey(t *testing.T) {
	g := NewWithT(t)

	c := New(ShortTTL)
	c.Set("key", "value")
	c.Delete("key")

	_, ok := c.Get("key")

	g.Expect(ok).To(BeFalse())
}
