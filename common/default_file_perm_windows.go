package common

import "os"

// DEFAULT_FILE_PERM on Windows retains 0644 since Windows does not use a
// POSIX umask.
var DEFAULT_FILE_PERM os.FileMode = 0644
