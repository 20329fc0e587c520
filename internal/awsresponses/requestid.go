// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package awsresponses

import "github.com/google/uuid"

// NextRequestID returns a fresh id for the x-amzn-RequestId header.
func NextRequestID() string {
	return uuid.NewString()
}
