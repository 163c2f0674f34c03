package updater

var CompareVersions = compareVersions
