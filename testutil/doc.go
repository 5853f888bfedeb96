// Package testutil provides test doubles and telegram fixtures shared by the
// package tests.
//
// MockNATSClient satisfies the Subscribe/Publish surface of natsclient.Client.
// Publish records every message and calls matching handlers synchronously,
// so a processor under test has finished with a message when Publish
// returns:
//
//	client := testutil.NewMockNATSClient()
//	require.NoError(t, proc.Start(ctx))
//	require.NoError(t, client.Publish(ctx, "dlms.telegram.raw", testutil.ReduxiXML()))
//	out := client.GetMessages("dlms.meter.reading")
//
// MockKVStore mirrors the context-taking Put, PutJSON, Get and Delete of
// natsclient.KVStore. Both mocks support error injection through FailPublish
// and FailWith.
//
// StructureXML and the field helpers (Octet, U32, U16, U8, Enum, Boolean)
// render structures in the listener's XML form. ReduxiXML is a complete
// si-sodo-reduxi telegram with known values.
//
// Use the natsclient test container for anything that depends on real
// JetStream behaviour; these mocks only cover core pub/sub.
package testutil
