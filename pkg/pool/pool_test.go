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

package pool

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestCheckoutAndCheckinTrackOccupancy(t *testing.T) {
	g := NewWithT(t)

	m := NewMonitor(2)
	checkin := m.Checkout()

	snapshot := m.Snapshot()
	g.Expect(snapshot.CheckedOut).To(Equal(1))
	g.Expect(snapshot.CheckedIn).To(Equal(1))

	checkin()

	snapshot = m.Snapshot()
	g.Expect(snapshot.CheckedOut).To(Equal(0))
	g.Expect(snapshot.CheckedIn).To(Equal(2))
}

func TestOverflowReportedWhenCheckedOutExceedsSize(t *testing.T) {
	g := NewWithT(t)

	m := NewMonitor(1)
	m.Checkout()
	m.Checkout()

	snapshot := m.Snapshot()

	g.Expect(snapshot.Overflow).To(Equal(1))
	g.Expect(snapshot.PeakCheckedOut).To(Equal(2))
}

func TestRecordTimeoutIncrementsCounter(t *testing.T) {
	g := NewWithT(t)

	m := NewMonitor(1)
	m.RecordTimeout()
	m.RecordTimeout()

	g.Expect(m.Snapshot().Timeouts).To(Equal(int64(2)))
}
